package decomp

import "slices"

type stairCandidate struct {
	v, a, b int // a < b
}

// CalcStairlinkingVars turns linking variables that couple exactly two
// blocks into stairlinking variables by renumbering blocks along paths of
// the block graph. When the graph is a disjoint union of paths every
// candidate becomes stairlinking. Otherwise, with heuristic set, paths are
// grown greedily along the heaviest edges. A final pass places every
// candidate and existing stairlinking variable: stairlinking when its two
// blocks are now consecutive, linking otherwise. The block count never
// changes.
func (p *Partial) CalcStairlinkingVars(heuristic bool) bool {
	if p.nBlocks < 2 {
		return false
	}

	var cands []stairCandidate
	isCand := make(map[int]bool)
	consider := slices.Clone(p.linkingVars)
	for b := range p.nBlocks {
		consider = append(consider, p.stairVars[b]...)
	}
	for _, v := range consider {
		blocks, open := p.varBlocks(v)
		if open || len(blocks) != 2 {
			continue
		}
		cands = append(cands, stairCandidate{v, blocks[0], blocks[1]})
		isCand[v] = true
	}

	g := NewBlockGraph(p.nBlocks)
	for _, c := range cands {
		g.AddEdge(c.a, c.b)
	}
	var order []int
	switch {
	case g.IsPathForest():
		order = slices.Concat(g.Paths()...)
	case heuristic:
		order = slices.Concat(g.GreedyPaths()...)
	}

	// Detach all stairlinking variables before blocks move.
	type oldStair struct{ v, first int }
	var detached []oldStair
	wasStair := make(map[int]bool)
	for b := range p.nBlocks {
		for _, v := range p.stairVars[b] {
			detached = append(detached, oldStair{v, b})
			wasStair[v] = true
			p.varStair.Clear(uint(v))
			p.varBlock[v] = -1
		}
		p.stairVars[b] = nil
	}

	pos := make([]int, p.nBlocks)
	for b := range pos {
		pos[b] = b
	}
	changed := false
	if order != nil && !isIdentity(order) {
		p.reorderBlocks(order)
		for i, b := range order {
			pos[b] = i
		}
		changed = true
	}

	place := func(v, a, b int) {
		x, y := min(pos[a], pos[b]), max(pos[a], pos[b])
		stair := y == x+1
		if stair {
			p.SetVarToStairlinking(v, x)
		} else {
			p.SetVarToLinking(v)
		}
		if stair != wasStair[v] {
			changed = true
		}
	}
	for _, d := range detached {
		if !isCand[d.v] {
			place(d.v, d.first, d.first+1)
		}
	}
	for _, c := range cands {
		place(c.v, c.a, c.b)
	}
	p.invalidate()
	return changed
}

func isIdentity(order []int) bool {
	for i, b := range order {
		if i != b {
			return false
		}
	}
	return true
}

// reorderBlocks renumbers blocks so that new block i is old block order[i].
// Stairlinking variables must be detached by the caller.
func (p *Partial) reorderBlocks(order []int) {
	conss := make([][]int, p.nBlocks)
	vars := make([][]int, p.nBlocks)
	for i, b := range order {
		conss[i] = p.conssForBlocks[b]
		vars[i] = p.varsForBlocks[b]
		for _, c := range conss[i] {
			p.consBlock[c] = i
		}
		for _, v := range vars[i] {
			p.varBlock[v] = i
		}
	}
	p.conssForBlocks = conss
	p.varsForBlocks = vars
	p.invalidate()
}
