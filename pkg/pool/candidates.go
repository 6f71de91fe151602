package pool

import (
	"cmp"
	"slices"
	"sync"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/decomp"
)

// Candidate is a proposed number of blocks with the number of independent
// observations supporting it. User candidates carry User and rank first.
type Candidate struct {
	NBlocks int
	Votes   int
	User    bool
}

type candidates struct {
	mu     sync.RWMutex
	votes  map[int]int
	user   []int
	sorted []Candidate
}

// newCandidates mines block-number candidates from class sizes. Every class
// size above one votes for itself; when a classifier has at most
// maxClasses classes, the gcd of every subset of two or more class sizes
// votes as well. One more vote goes to #vars / median(row length).
func newCandidates(idx *decomp.Index, conss, vars []*classify.Classifier, maxClasses int) *candidates {
	c := &candidates{votes: make(map[int]int)}
	for _, cl := range slices.Concat(conss, vars) {
		sizes := cl.Sizes()
		for _, s := range sizes {
			c.vote(s)
		}
		if len(sizes) <= maxClasses {
			for _, g := range subsetGCDs(sizes) {
				c.vote(g)
			}
		}
	}
	if m := medianRowLength(idx); m > 0 {
		c.vote(idx.NVars() / m)
	}
	c.resort()
	return c
}

func (c *candidates) vote(n int) {
	if n > 1 {
		c.votes[n]++
	}
}

// subsetGCDs returns the gcd of every subset of at least two sizes.
func subsetGCDs(sizes []int) []int {
	var out []int
	n := len(sizes)
	for mask := 1; mask < 1<<n; mask++ {
		if mask&(mask-1) == 0 {
			continue
		}
		g := 0
		for i := range n {
			if mask&(1<<i) != 0 {
				g = gcd(g, sizes[i])
			}
		}
		out = append(out, g)
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// medianRowLength returns the lower median of the constraint lengths.
func medianRowLength(idx *decomp.Index) int {
	n := idx.NConss()
	if n == 0 {
		return 0
	}
	lens := make([]int, n)
	for c := range n {
		lens[c] = len(idx.VarsForCons(c))
	}
	slices.Sort(lens)
	return lens[(n-1)/2]
}

func (c *candidates) addUser(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || slices.Contains(c.user, n) {
		return
	}
	c.user = append(c.user, n)
	c.resortLocked()
}

func (c *candidates) resort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resortLocked()
}

func (c *candidates) resortLocked() {
	out := make([]Candidate, 0, len(c.user)+len(c.votes))
	for _, n := range c.user {
		out = append(out, Candidate{NBlocks: n, Votes: c.votes[n], User: true})
	}
	var mined []Candidate
	for n, v := range c.votes {
		if !slices.Contains(c.user, n) {
			mined = append(mined, Candidate{NBlocks: n, Votes: v})
		}
	}
	slices.SortFunc(mined, func(a, b Candidate) int {
		if x := cmp.Compare(b.Votes, a.Votes); x != 0 {
			return x
		}
		return cmp.Compare(a.NBlocks, b.NBlocks)
	})
	c.sorted = append(out, mined...)
}

func (c *candidates) list() []Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sorted
}

// CandidatesNBlocks returns the block-number candidates, user candidates
// first and the rest by descending votes.
func (p *Pool) CandidatesNBlocks() []Candidate {
	return slices.Clone(p.candidates.list())
}

// AddUserCandidate adds a user block number that ranks before every mined
// candidate.
func (p *Pool) AddUserCandidate(n int) { p.candidates.addUser(n) }
