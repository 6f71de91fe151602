package decomp

import (
	"cmp"
	"slices"
)

// primes are the block-position multipliers of the canonical hash.
var primes = [100]uint64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
	127, 131, 137, 139, 149, 151, 157, 163, 167, 173,
	179, 181, 191, 193, 197, 199, 211, 223, 227, 229,
	233, 239, 241, 251, 257, 263, 269, 271, 277, 281,
	283, 293, 307, 311, 313, 317, 331, 337, 347, 349,
	353, 359, 367, 373, 379, 383, 389, 397, 401, 409,
	419, 421, 431, 433, 439, 443, 449, 457, 461, 463,
	467, 479, 487, 491, 499, 503, 509, 521, 523, 541,
}

// blockKey orders blocks canonically: by smallest constraint, or by
// nConss plus the smallest variable for blocks without constraints.
func (p *Partial) blockKey(b int) int {
	if cs := p.conssForBlocks[b]; len(cs) > 0 {
		return cs[0]
	}
	first := -1
	if vs := p.varsForBlocks[b]; len(vs) > 0 {
		first = vs[0]
	}
	if ss := p.stairVars[b]; len(ss) > 0 && (first < 0 || ss[0] < first) {
		first = ss[0]
	}
	if first < 0 {
		return p.NConss() + p.NVars()
	}
	return p.NConss() + first
}

// canonicalOrder returns block ids sorted by blockKey, ties by id.
func (p *Partial) canonicalOrder() []int {
	order := make([]int, p.nBlocks)
	for b := range order {
		order[b] = b
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(p.blockKey(a), p.blockKey(b))
	})
	return order
}

func listHash(items []int) uint64 {
	var h uint64
	for tau, c := range items {
		h += uint64(2*c+1) << (tau % 16)
	}
	return h
}

// Hash returns the canonical, block-order-insensitive hash, computing it on
// first use after a mutation. Equal hashes are only a pre-filter for
// [Partial.IsEqual].
func (p *Partial) Hash() uint64 {
	if !p.hashValid {
		p.CalcHashvalue()
	}
	return p.hash
}

// CalcHashvalue recomputes the hash from the sorted lists.
func (p *Partial) CalcHashvalue() uint64 {
	var h uint64
	for i, b := range p.canonicalOrder() {
		h += primes[i%len(primes)] * listHash(p.conssForBlocks[b])
	}
	h += primes[p.nBlocks%len(primes)] * listHash(p.masterConss)
	h += primes[(p.nBlocks+1)%len(primes)] * uint64(len(p.openVars))
	p.hash, p.hashValid = h, true
	return h
}

// IsEqual reports whether p and other describe the same assignment up to
// block numbering. Stairlinking variables compare by the unordered pair of
// blocks they join.
func (p *Partial) IsEqual(other *Partial) bool {
	if p == other {
		return true
	}
	if p.nBlocks != other.nBlocks || p.NConss() != other.NConss() || p.NVars() != other.NVars() {
		return false
	}
	if !slices.Equal(p.masterConss, other.masterConss) ||
		!slices.Equal(p.masterVars, other.masterVars) ||
		!slices.Equal(p.linkingVars, other.linkingVars) ||
		!slices.Equal(p.openConss, other.openConss) ||
		!slices.Equal(p.openVars, other.openVars) {
		return false
	}

	po, oo := p.canonicalOrder(), other.canonicalOrder()
	for i := range po {
		a, b := po[i], oo[i]
		if !slices.Equal(p.conssForBlocks[a], other.conssForBlocks[b]) ||
			!slices.Equal(p.varsForBlocks[a], other.varsForBlocks[b]) {
			return false
		}
	}

	return slices.Equal(p.stairPairs(po), other.stairPairs(oo))
}

type stairPair struct{ v, lo, hi int }

// stairPairs lists stairlinking variables with the canonical positions of
// the blocks they join, sorted by variable.
func (p *Partial) stairPairs(order []int) []stairPair {
	pos := make([]int, p.nBlocks)
	for i, b := range order {
		pos[b] = i
	}
	var out []stairPair
	for b := range p.nBlocks {
		for _, v := range p.stairVars[b] {
			lo, hi := pos[b], pos[b+1]
			if lo > hi {
				lo, hi = hi, lo
			}
			out = append(out, stairPair{v, lo, hi})
		}
	}
	slices.SortFunc(out, func(a, b stairPair) int { return cmp.Compare(a.v, b.v) })
	return out
}
