package decomp

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// CompleteByConnected assigns every open item. Open constraints that
// existing blocks or the master already determine are settled first; the
// rest are flood-filled through shared open variables and each connected
// component becomes a new block together with its open variables. Variables
// left over end up in the master, a block, stairlinking or linking according
// to the constraints they occur in.
func (p *Partial) CompleteByConnected() bool {
	changed := p.settle()
	idx := p.sh.idx

	visitedConss := roaring.New()
	visitedVars := roaring.New()
	for _, start := range slices.Clone(p.openConss) {
		if visitedConss.Contains(uint32(start)) {
			continue
		}
		visitedConss.Add(uint32(start))
		conss, vars := []int{start}, []int(nil)
		for head := 0; head < len(conss); head++ {
			for _, v := range idx.VarsForCons(conss[head]) {
				if !p.IsVarOpen(v) || !visitedVars.CheckedAdd(uint32(v)) {
					continue
				}
				vars = append(vars, v)
				for _, o := range idx.ConssForVar(v) {
					if p.IsConsOpen(o) && visitedConss.CheckedAdd(uint32(o)) {
						conss = append(conss, o)
					}
				}
			}
		}
		p.bookComponent(conss, vars)
	}
	if p.FlushBooked() {
		changed = true
	}
	if p.finalizeOpenVars() {
		changed = true
	}
	return changed
}

// CompleteByConnectedConssAdjacency is CompleteByConnected driven by the
// precomputed constraint adjacency. It is only equivalent while no master,
// linking or stairlinking variable can connect two open constraints, and
// falls back to CompleteByConnected otherwise or when the index has no
// adjacency.
func (p *Partial) CompleteByConnectedConssAdjacency() bool {
	idx := p.sh.idx
	if !idx.HasConssAdjacency() {
		return p.CompleteByConnected()
	}
	changed := p.settle()
	if len(p.masterVars)+len(p.linkingVars)+p.NTotalStairlinkingVars() > 0 {
		return p.CompleteByConnected() || changed
	}

	visited := roaring.New()
	for _, start := range slices.Clone(p.openConss) {
		if visited.Contains(uint32(start)) {
			continue
		}
		visited.Add(uint32(start))
		conss := []int{start}
		for head := 0; head < len(conss); head++ {
			for _, o := range idx.ConssForCons(conss[head]) {
				if p.IsConsOpen(o) && visited.CheckedAdd(uint32(o)) {
					conss = append(conss, o)
				}
			}
		}
		var vars []int
		seen := roaring.New()
		for _, c := range conss {
			for _, v := range idx.VarsForCons(c) {
				if p.IsVarOpen(v) && seen.CheckedAdd(uint32(v)) {
					vars = append(vars, v)
				}
			}
		}
		p.bookComponent(conss, vars)
	}
	if p.FlushBooked() {
		changed = true
	}
	if p.finalizeOpenVars() {
		changed = true
	}
	return changed
}

func (p *Partial) bookComponent(conss, vars []int) {
	b := p.AddBlock()
	for _, c := range conss {
		p.BookAsBlockCons(c, b)
	}
	for _, v := range vars {
		p.BookAsBlockVar(v, b)
	}
}

// CompleteGreedily assigns every open item in one pass over the open
// constraints. A constraint joins the single block its assigned or already
// claimed variables point to, opens a new block when nothing points
// anywhere, and goes to the master on conflicting evidence. Open variables
// are claimed by the first block whose constraint uses them and are
// finally placed by the blocks of their constraints.
func (p *Partial) CompleteGreedily() bool {
	if p.IsComplete() {
		return false
	}
	idx := p.sh.idx
	owner := make(map[int]int)

	for _, c := range slices.Clone(p.openConss) {
		targets, restricted, _ := p.consTargets(c)
		for _, v := range idx.VarsForCons(c) {
			b, ok := owner[v]
			if !ok || !p.IsVarOpen(v) {
				continue
			}
			if !restricted {
				targets, restricted = []int{b}, true
			} else {
				targets = intersectSorted(targets, []int{b})
			}
		}

		var b int
		switch {
		case !restricted:
			b = p.AddBlock()
		case len(targets) > 0:
			b = targets[0]
		default:
			p.SetConsToMaster(c)
			continue
		}
		p.SetConsToBlock(c, b)
		for _, v := range idx.VarsForCons(c) {
			if _, ok := owner[v]; !ok && p.IsVarOpen(v) {
				owner[v] = b
			}
		}
	}
	p.finalizeOpenVars()
	return true
}
