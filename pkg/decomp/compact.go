package decomp

import "slices"

// DeleteEmptyBlocks removes every block without constraints (and, with
// requireBothEmpty, without variables as well). Block variables of a removed
// block move to the master, its own stairlinking variables become block
// variables of the following block, and the preceding block's stairlinking
// variables become block variables of the preceding block. Nothing returns
// to open.
func (p *Partial) DeleteEmptyBlocks(requireBothEmpty bool) bool {
	changed := false
	for {
		b := slices.IndexFunc(p.conssForBlocks, func(cs []int) bool { return len(cs) == 0 })
		for b >= 0 && requireBothEmpty && (len(p.varsForBlocks[b]) > 0 || len(p.stairVars[b]) > 0) {
			next := slices.IndexFunc(p.conssForBlocks[b+1:], func(cs []int) bool { return len(cs) == 0 })
			if next < 0 {
				b = -1
			} else {
				b += 1 + next
			}
		}
		if b < 0 {
			return changed
		}
		p.removeBlock(b)
		changed = true
	}
}

func (p *Partial) removeBlock(b int) {
	for _, v := range slices.Clone(p.varsForBlocks[b]) {
		p.SetVarToMaster(v)
	}
	for _, v := range slices.Clone(p.stairVars[b]) {
		p.SetVarToBlock(v, b+1)
	}
	if b > 0 {
		for _, v := range slices.Clone(p.stairVars[b-1]) {
			p.SetVarToBlock(v, b-1)
		}
	}

	p.conssForBlocks = slices.Delete(p.conssForBlocks, b, b+1)
	p.varsForBlocks = slices.Delete(p.varsForBlocks, b, b+1)
	p.stairVars = slices.Delete(p.stairVars, b, b+1)
	p.nBlocks--
	for nb := b; nb < p.nBlocks; nb++ {
		for _, c := range p.conssForBlocks[nb] {
			p.consBlock[c] = nb
		}
		for _, v := range p.varsForBlocks[nb] {
			p.varBlock[v] = nb
		}
		for _, v := range p.stairVars[nb] {
			p.varBlock[v] = nb
		}
	}
	p.invalidate()
}
