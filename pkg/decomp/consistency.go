package decomp

import (
	"slices"

	"github.com/matzehuels/blocktower/pkg/errors"
)

// CheckConsistency re-validates the structural invariants: every item sits in
// exactly one category, every list is strictly ascending, the membership
// mirrors agree with the lists, no block is empty of both constraints and
// variables, and assigned variables only occur in constraints their category
// allows.
func (p *Partial) CheckConsistency() error {
	nc, nv := p.NConss(), p.NVars()
	if len(p.conssForBlocks) != p.nBlocks || len(p.varsForBlocks) != p.nBlocks || len(p.stairVars) != p.nBlocks {
		return inconsistent("block list lengths disagree with nBlocks=%d", p.nBlocks)
	}

	lists := map[string][]int{
		"master constraints": p.masterConss,
		"open constraints":   p.openConss,
		"master variables":   p.masterVars,
		"linking variables":  p.linkingVars,
		"open variables":     p.openVars,
	}
	for b := range p.nBlocks {
		if !isStrictlyAscending(p.conssForBlocks[b]) || !isStrictlyAscending(p.varsForBlocks[b]) || !isStrictlyAscending(p.stairVars[b]) {
			return inconsistent("block %d lists are not strictly ascending", b)
		}
	}
	for name, l := range lists {
		if !isStrictlyAscending(l) {
			return inconsistent("%s are not strictly ascending", name)
		}
	}

	consSeen := make([]int, nc)
	mark := func(seen []int, kind string, items []int) error {
		for _, x := range items {
			if x < 0 || x >= len(seen) {
				return inconsistent("%s index %d out of range", kind, x)
			}
			seen[x]++
		}
		return nil
	}
	for b := range p.nBlocks {
		for _, c := range p.conssForBlocks[b] {
			if p.consBlock[c] != b {
				return inconsistent("constraint %d listed in block %d but mirrored as %d", c, b, p.consBlock[c])
			}
		}
		if err := mark(consSeen, "constraint", p.conssForBlocks[b]); err != nil {
			return err
		}
	}
	if err := mark(consSeen, "constraint", p.masterConss); err != nil {
		return err
	}
	if err := mark(consSeen, "constraint", p.openConss); err != nil {
		return err
	}
	for c, n := range consSeen {
		if n != 1 {
			return inconsistent("constraint %d assigned %d times", c, n)
		}
	}
	for _, c := range p.masterConss {
		if !p.IsConsMaster(c) || p.IsConsOpen(c) || p.consBlock[c] >= 0 {
			return inconsistent("master constraint %d has a stale mirror", c)
		}
	}
	for _, c := range p.openConss {
		if !p.IsConsOpen(c) || p.IsConsMaster(c) || p.consBlock[c] >= 0 {
			return inconsistent("open constraint %d has a stale mirror", c)
		}
	}

	varSeen := make([]int, nv)
	for b := range p.nBlocks {
		for _, v := range p.varsForBlocks[b] {
			if !p.IsVarBlockVarOfBlock(v, b) {
				return inconsistent("variable %d listed in block %d has a stale mirror", v, b)
			}
		}
		for _, v := range p.stairVars[b] {
			if !p.IsVarStairlinkingOfBlock(v, b) {
				return inconsistent("stairlinking variable %d of block %d has a stale mirror", v, b)
			}
			if b+1 >= p.nBlocks {
				return inconsistent("stairlinking variable %d in last block %d", v, b)
			}
		}
		if err := mark(varSeen, "variable", p.varsForBlocks[b]); err != nil {
			return err
		}
		if err := mark(varSeen, "variable", p.stairVars[b]); err != nil {
			return err
		}
	}
	for _, l := range [][]int{p.masterVars, p.linkingVars, p.openVars} {
		if err := mark(varSeen, "variable", l); err != nil {
			return err
		}
	}
	for v, n := range varSeen {
		if n != 1 {
			return inconsistent("variable %d assigned %d times", v, n)
		}
	}
	for _, v := range p.masterVars {
		if !p.IsVarMaster(v) || p.IsVarOpen(v) || p.IsVarLinking(v) || p.varBlock[v] >= 0 {
			return inconsistent("master variable %d has a stale mirror", v)
		}
	}
	for _, v := range p.linkingVars {
		if !p.IsVarLinking(v) || p.IsVarOpen(v) || p.IsVarMaster(v) || p.varBlock[v] >= 0 {
			return inconsistent("linking variable %d has a stale mirror", v)
		}
	}
	for _, v := range p.openVars {
		if !p.IsVarOpen(v) || p.IsVarMaster(v) || p.IsVarLinking(v) || p.varBlock[v] >= 0 {
			return inconsistent("open variable %d has a stale mirror", v)
		}
	}

	for b := range p.nBlocks {
		if len(p.conssForBlocks[b]) == 0 && len(p.varsForBlocks[b]) == 0 && len(p.stairVars[b]) == 0 {
			return inconsistent("block %d is empty", b)
		}
	}

	return p.checkPlacement()
}

// checkPlacement verifies that every variable in a block constraint may
// appear there: open, linking, a block variable of that block, or a
// stairlinking variable touching it. Master variables never appear in block
// constraints.
func (p *Partial) checkPlacement() error {
	idx := p.sh.idx
	for b := range p.nBlocks {
		for _, c := range p.conssForBlocks[b] {
			for _, v := range idx.VarsForCons(c) {
				if !p.varAllowedInBlock(v, b) {
					return inconsistent("variable %s of block constraint %s does not fit block %d",
						idx.VarName(v), idx.ConsName(c), b)
				}
			}
		}
	}
	return nil
}

func (p *Partial) varAllowedInBlock(v, b int) bool {
	switch {
	case p.IsVarOpen(v), p.IsVarLinking(v):
		return true
	case p.IsVarMaster(v):
		return false
	case p.IsVarStairlinking(v):
		return p.varBlock[v] == b || p.varBlock[v]+1 == b
	}
	return p.varBlock[v] == b
}

func isStrictlyAscending(s []int) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}

func inconsistent(format string, args ...any) error {
	return errors.New(errors.ErrCodeInconsistent, format, args...)
}

// Sort restores ascending order of every list. Lists are kept sorted by all
// mutators; Sort exists for decompositions assembled by hand.
func (p *Partial) Sort() {
	for b := range p.nBlocks {
		slices.Sort(p.conssForBlocks[b])
		slices.Sort(p.varsForBlocks[b])
		slices.Sort(p.stairVars[b])
	}
	slices.Sort(p.masterConss)
	slices.Sort(p.masterVars)
	slices.Sort(p.linkingVars)
	slices.Sort(p.openConss)
	slices.Sort(p.openVars)
	p.hashValid = false
}
