package decomp

import "slices"

// consTargets returns the blocks constraint c may join given its assigned
// variables. restricted is false when no assigned variable constrains c;
// an empty restricted target list means c can only go to the master.
// openVars reports whether c still contains an open variable.
func (p *Partial) consTargets(c int) (targets []int, restricted, openVars bool) {
	for _, v := range p.sh.idx.VarsForCons(c) {
		var allowed []int
		switch {
		case p.IsVarOpen(v):
			openVars = true
			continue
		case p.IsVarLinking(v):
			continue
		case p.IsVarMaster(v):
			allowed = nil
		case p.IsVarStairlinking(v):
			b := p.varBlock[v]
			allowed = []int{b, b + 1}
		default:
			allowed = []int{p.varBlock[v]}
		}
		if !restricted {
			targets, restricted = allowed, true
			continue
		}
		targets = intersectSorted(targets, allowed)
	}
	return targets, restricted, openVars
}

// varBlocks returns the ascending distinct blocks whose constraints contain
// v, and whether v occurs in an open constraint.
func (p *Partial) varBlocks(v int) (blocks []int, openConss bool) {
	for _, c := range p.sh.idx.ConssForVar(v) {
		switch {
		case p.IsConsOpen(c):
			openConss = true
		case p.consBlock[c] >= 0:
			blocks = insertSorted(blocks, p.consBlock[c])
		}
	}
	return blocks, openConss
}

func intersectSorted(a, b []int) []int {
	var out []int
	for _, x := range a {
		if _, ok := slices.BinarySearch(b, x); ok {
			out = append(out, x)
		}
	}
	return out
}

// =============================================================================
// One-step Rules
// =============================================================================

// AssignHittingOpenConss moves every open constraint whose assigned
// variables leave exactly one possible block into that block.
func (p *Partial) AssignHittingOpenConss() bool {
	for _, c := range p.openConss {
		if targets, restricted, _ := p.consTargets(c); restricted && len(targets) == 1 {
			p.BookAsBlockCons(c, targets[0])
		}
	}
	return p.FlushBooked()
}

// AssignHittingOpenVars makes every open variable whose block constraints
// all lie in one block a block variable of it.
func (p *Partial) AssignHittingOpenVars() bool {
	for _, v := range p.openVars {
		if blocks, _ := p.varBlocks(v); len(blocks) == 1 {
			p.BookAsBlockVar(v, blocks[0])
		}
	}
	return p.FlushBooked()
}

// AssignOpenPartialHittingConsToMaster moves open constraints that cannot
// join any single block to the master.
func (p *Partial) AssignOpenPartialHittingConsToMaster() bool {
	for _, c := range p.openConss {
		if targets, restricted, _ := p.consTargets(c); restricted && len(targets) == 0 {
			p.BookAsMasterCons(c)
		}
	}
	return p.FlushBooked()
}

// AssignOpenPartialHittingVarsToLinking makes open variables that already
// occur in constraints of two or more blocks linking.
func (p *Partial) AssignOpenPartialHittingVarsToLinking() bool {
	for _, v := range p.openVars {
		if blocks, _ := p.varBlocks(v); len(blocks) >= 2 {
			p.BookAsLinkingVar(v)
		}
	}
	return p.FlushBooked()
}

// AssignOpenPartialHittingToMaster applies both partial-hitting rules.
func (p *Partial) AssignOpenPartialHittingToMaster() bool {
	conss := p.AssignOpenPartialHittingConsToMaster()
	vars := p.AssignOpenPartialHittingVarsToLinking()
	return conss || vars
}

// AssignCurrentStairlinking makes open variables without open constraints
// whose block constraints lie in exactly two consecutive blocks
// stairlinking.
func (p *Partial) AssignCurrentStairlinking() bool {
	for _, v := range p.openVars {
		blocks, open := p.varBlocks(v)
		if !open && len(blocks) == 2 && blocks[1] == blocks[0]+1 {
			p.BookAsStairlinkingVar(v, blocks[0])
		}
	}
	return p.FlushBooked()
}

// ConsiderImplicits assigns items whose category follows from their
// neighbourhood:
//   - an open constraint without open variables joins its only possible
//     block, or the master if none or its variables are all linking;
//   - an open variable in constraints of several blocks becomes linking;
//   - an open variable without open constraints becomes a block variable
//     of its only block, or a master variable if it sits in master
//     constraints only.
func (p *Partial) ConsiderImplicits() bool {
	for _, c := range p.openConss {
		targets, restricted, open := p.consTargets(c)
		switch {
		case open:
		case !restricted || len(targets) == 0:
			p.BookAsMasterCons(c)
		case len(targets) == 1:
			p.BookAsBlockCons(c, targets[0])
		}
	}
	for _, v := range p.openVars {
		blocks, open := p.varBlocks(v)
		switch {
		case len(blocks) >= 2:
			p.BookAsLinkingVar(v)
		case open:
		case len(blocks) == 1:
			p.BookAsBlockVar(v, blocks[0])
		default:
			p.BookAsMasterVar(v)
		}
	}
	return p.FlushBooked()
}

// =============================================================================
// Fixed Points
// =============================================================================

// RefineToBlocks repeats the hitting rules until nothing changes.
func (p *Partial) RefineToBlocks() bool {
	changed := false
	for {
		conss := p.AssignHittingOpenConss()
		vars := p.AssignHittingOpenVars()
		if !conss && !vars {
			return changed
		}
		changed = true
	}
}

// RefineToMaster repeats the partial-hitting rules and ConsiderImplicits
// until nothing changes.
func (p *Partial) RefineToMaster() bool {
	changed := false
	for {
		partial := p.AssignOpenPartialHittingToMaster()
		implicit := p.ConsiderImplicits()
		if !partial && !implicit {
			return changed
		}
		changed = true
	}
}

// AssignAllDependent assigns everything that follows from the current state:
// stairlinking variables first, then implicit assignments, to a fixed point.
func (p *Partial) AssignAllDependent() bool {
	changed := false
	for {
		stair := p.AssignCurrentStairlinking()
		implicit := p.ConsiderImplicits()
		if !stair && !implicit {
			return changed
		}
		changed = true
	}
}

// settle runs the block and master refinements to a fixed point and breaks
// the remaining ambiguity of constraints that only stairlinking variables
// restrict by choosing the lower block.
func (p *Partial) settle() bool {
	changed := false
	for {
		blocks := p.RefineToBlocks()
		master := p.AssignOpenPartialHittingToMaster()
		stair := false
		if !blocks && !master {
			for _, c := range p.openConss {
				if targets, restricted, _ := p.consTargets(c); restricted && len(targets) > 1 {
					p.BookAsBlockCons(c, targets[0])
				}
			}
			stair = p.FlushBooked()
		}
		if !blocks && !master && !stair {
			return changed
		}
		changed = true
	}
}

// finalizeOpenVars assigns every remaining open variable by the blocks of
// its constraints: none to master, one to that block, two consecutive to
// stairlinking, otherwise linking.
func (p *Partial) finalizeOpenVars() bool {
	for _, v := range p.openVars {
		blocks, _ := p.varBlocks(v)
		switch {
		case len(blocks) == 0:
			p.BookAsMasterVar(v)
		case len(blocks) == 1:
			p.BookAsBlockVar(v, blocks[0])
		case len(blocks) == 2 && blocks[1] == blocks[0]+1:
			p.BookAsStairlinkingVar(v, blocks[0])
		default:
			p.BookAsLinkingVar(v)
		}
	}
	return p.FlushBooked()
}
