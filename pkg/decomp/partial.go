package decomp

import (
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// =============================================================================
// Types
// =============================================================================

// Origin flags describe where a decomposition came from.
type Origin struct {
	UserGiven          bool
	Presolved          bool
	Translated         bool
	FinishedByFinisher bool
}

// shared is the read-only state common to a decomposition and all its clones.
type shared struct {
	idx       *Index
	cfg       config.Config
	forbidden [problem.NConsTypes]bool
}

type blockAssign struct {
	item, block int
}

// Partial is a possibly incomplete assignment of every constraint to
// {open, master, block b} and every variable to {open, master, linking,
// block b, stairlinking b}. A stairlinking variable of block b is shared by
// blocks b and b+1.
//
// All index lists are kept strictly ascending. Membership is mirrored in
// bitsets so that every query is O(1).
//
// Mutations go through booking plus [Partial.FlushBooked], the direct
// setters, or the refinement methods. A Partial is not safe for concurrent
// mutation; workers clone before changing anything.
type Partial struct {
	sh *shared

	id             int
	nBlocks        int
	conssForBlocks [][]int
	varsForBlocks  [][]int
	stairVars      [][]int

	masterConss []int
	masterVars  []int
	linkingVars []int
	openConss   []int
	openVars    []int

	consOpen   *bitset.BitSet
	consMaster *bitset.BitSet
	varOpen    *bitset.BitSet
	varMaster  *bitset.BitSet
	varLinking *bitset.BitSet
	varStair   *bitset.BitSet
	consBlock  []int // block of a block constraint, -1 otherwise
	varBlock   []int // block of a block variable or first block of a stairlinking one, -1 otherwise

	bookedBlockConss  []blockAssign
	bookedBlockVars   []blockAssign
	bookedMasterConss []int
	bookedMasterVars  []int
	bookedLinkingVars []int
	bookedStairVars   []blockAssign

	hash      uint64
	hashValid bool
	scores    [nScoreTypes]float64
	agg       *AggregationInfo

	detectors []string
	steps     []Step
	ancestors []int
	poolID    string

	Origin Origin
}

// New returns an empty decomposition over idx with every item open.
func New(idx *Index, cfg config.Config) *Partial {
	sh := &shared{idx: idx, cfg: cfg}
	for _, name := range cfg.Score.ForbiddenMasterTypes {
		if t, err := problem.ParseConsType(name); err == nil {
			sh.forbidden[t] = true
		}
	}

	nc, nv := uint(idx.NConss()), uint(idx.NVars())
	p := &Partial{
		sh:         sh,
		consOpen:   bitset.New(nc),
		consMaster: bitset.New(nc),
		varOpen:    bitset.New(nv),
		varMaster:  bitset.New(nv),
		varLinking: bitset.New(nv),
		varStair:   bitset.New(nv),
		consBlock:  make([]int, nc),
		varBlock:   make([]int, nv),
		openConss:  make([]int, nc),
		openVars:   make([]int, nv),
	}
	for c := range idx.NConss() {
		p.openConss[c] = c
		p.consOpen.Set(uint(c))
		p.consBlock[c] = -1
	}
	for v := range idx.NVars() {
		p.openVars[v] = v
		p.varOpen.Set(uint(v))
		p.varBlock[v] = -1
	}
	p.invalidate()
	return p
}

// Clone returns a deep copy sharing only the immutable index and
// configuration. Booked but unflushed moves are copied too.
func (p *Partial) Clone() *Partial {
	q := &Partial{
		sh:          p.sh,
		id:          p.id,
		nBlocks:     p.nBlocks,
		masterConss: slices.Clone(p.masterConss),
		masterVars:  slices.Clone(p.masterVars),
		linkingVars: slices.Clone(p.linkingVars),
		openConss:   slices.Clone(p.openConss),
		openVars:    slices.Clone(p.openVars),
		consOpen:    p.consOpen.Clone(),
		consMaster:  p.consMaster.Clone(),
		varOpen:     p.varOpen.Clone(),
		varMaster:   p.varMaster.Clone(),
		varLinking:  p.varLinking.Clone(),
		varStair:    p.varStair.Clone(),
		consBlock:   slices.Clone(p.consBlock),
		varBlock:    slices.Clone(p.varBlock),

		bookedBlockConss:  slices.Clone(p.bookedBlockConss),
		bookedBlockVars:   slices.Clone(p.bookedBlockVars),
		bookedMasterConss: slices.Clone(p.bookedMasterConss),
		bookedMasterVars:  slices.Clone(p.bookedMasterVars),
		bookedLinkingVars: slices.Clone(p.bookedLinkingVars),
		bookedStairVars:   slices.Clone(p.bookedStairVars),

		hash:      p.hash,
		hashValid: p.hashValid,
		scores:    p.scores,
		agg:       p.agg,
		detectors: slices.Clone(p.detectors),
		steps:     slices.Clone(p.steps),
		ancestors: slices.Clone(p.ancestors),
		poolID:    p.poolID,
		Origin:    p.Origin,
	}
	q.conssForBlocks = cloneLists(p.conssForBlocks)
	q.varsForBlocks = cloneLists(p.varsForBlocks)
	q.stairVars = cloneLists(p.stairVars)
	return q
}

func cloneLists(ls [][]int) [][]int {
	out := make([][]int, len(ls))
	for i, l := range ls {
		out[i] = slices.Clone(l)
	}
	return out
}

// invalidate drops cached hash, scores and aggregation information.
func (p *Partial) invalidate() {
	p.hashValid = false
	for i := range p.scores {
		p.scores[i] = scoreUnknown
	}
	p.agg = nil
}

// =============================================================================
// Provenance
// =============================================================================

// ID returns the pool-assigned identifier, 0 before stamping.
func (p *Partial) ID() int { return p.id }

// SetID sets the identifier.
func (p *Partial) SetID(id int) { p.id = id }

// PoolID returns the id of the owning pool.
func (p *Partial) PoolID() string { return p.poolID }

// SetPoolID records the owning pool.
func (p *Partial) SetPoolID(id string) { p.poolID = id }

// Detectors returns the chain of detectors that produced p.
func (p *Partial) Detectors() []string { return p.detectors }

// Steps returns per-detector statistics aligned with Detectors.
func (p *Partial) Steps() []Step { return p.steps }

// Ancestors returns the ids of the decompositions p was derived from, oldest
// first.
func (p *Partial) Ancestors() []int { return p.ancestors }

// AddAncestor appends an ancestor id.
func (p *Partial) AddAncestor(id int) { p.ancestors = append(p.ancestors, id) }

// AddStep appends a detector to the chain together with its statistics.
func (p *Partial) AddStep(s Step) {
	p.detectors = append(p.detectors, s.Detector)
	p.steps = append(p.steps, s)
}

// HasDetector reports whether name is in the detector chain.
func (p *Partial) HasDetector(name string) bool { return slices.Contains(p.detectors, name) }

// =============================================================================
// Queries
// =============================================================================

// Index returns the incidence index p is defined over.
func (p *Partial) Index() *Index { return p.sh.idx }

// Config returns the configuration p was created with.
func (p *Partial) Config() config.Config { return p.sh.cfg }

// NBlocks returns the number of blocks.
func (p *Partial) NBlocks() int { return p.nBlocks }

// NConss returns the number of indexed constraints.
func (p *Partial) NConss() int { return p.sh.idx.NConss() }

// NVars returns the number of indexed variables.
func (p *Partial) NVars() int { return p.sh.idx.NVars() }

// ConssForBlock returns the constraints of block b.
func (p *Partial) ConssForBlock(b int) []int { return p.conssForBlocks[b] }

// VarsForBlock returns the block-exclusive variables of block b.
func (p *Partial) VarsForBlock(b int) []int { return p.varsForBlocks[b] }

// StairlinkingVars returns the variables shared by blocks b and b+1.
func (p *Partial) StairlinkingVars(b int) []int { return p.stairVars[b] }

// MasterConss returns the master constraints.
func (p *Partial) MasterConss() []int { return p.masterConss }

// MasterVars returns the variables that live only in the master.
func (p *Partial) MasterVars() []int { return p.masterVars }

// LinkingVars returns the non-staircase linking variables.
func (p *Partial) LinkingVars() []int { return p.linkingVars }

// OpenConss returns the unassigned constraints.
func (p *Partial) OpenConss() []int { return p.openConss }

// OpenVars returns the unassigned variables.
func (p *Partial) OpenVars() []int { return p.openVars }

// NMasterConss returns the number of master constraints.
func (p *Partial) NMasterConss() int { return len(p.masterConss) }

// NMasterVars returns the number of master variables.
func (p *Partial) NMasterVars() int { return len(p.masterVars) }

// NLinkingVars returns the number of linking variables.
func (p *Partial) NLinkingVars() int { return len(p.linkingVars) }

// NOpenConss returns the number of open constraints.
func (p *Partial) NOpenConss() int { return len(p.openConss) }

// NOpenVars returns the number of open variables.
func (p *Partial) NOpenVars() int { return len(p.openVars) }

// NTotalStairlinkingVars returns the number of stairlinking variables.
func (p *Partial) NTotalStairlinkingVars() int {
	n := 0
	for _, s := range p.stairVars {
		n += len(s)
	}
	return n
}

// IsConsOpen reports whether c is unassigned.
func (p *Partial) IsConsOpen(c int) bool { return p.consOpen.Test(uint(c)) }

// IsConsMaster reports whether c is a master constraint.
func (p *Partial) IsConsMaster(c int) bool { return p.consMaster.Test(uint(c)) }

// IsConsBlockConsOfBlock reports whether c belongs to block b.
func (p *Partial) IsConsBlockConsOfBlock(c, b int) bool { return p.consBlock[c] == b }

// BlockOfCons returns the block of c, or -1.
func (p *Partial) BlockOfCons(c int) int { return p.consBlock[c] }

// IsVarOpen reports whether v is unassigned.
func (p *Partial) IsVarOpen(v int) bool { return p.varOpen.Test(uint(v)) }

// IsVarMaster reports whether v is a master variable.
func (p *Partial) IsVarMaster(v int) bool { return p.varMaster.Test(uint(v)) }

// IsVarLinking reports whether v is a linking variable.
func (p *Partial) IsVarLinking(v int) bool { return p.varLinking.Test(uint(v)) }

// IsVarStairlinking reports whether v is a stairlinking variable.
func (p *Partial) IsVarStairlinking(v int) bool { return p.varStair.Test(uint(v)) }

// IsVarBlockVar reports whether v is block-exclusive.
func (p *Partial) IsVarBlockVar(v int) bool {
	return p.varBlock[v] >= 0 && !p.IsVarStairlinking(v)
}

// IsVarBlockVarOfBlock reports whether v is block-exclusive to block b.
func (p *Partial) IsVarBlockVarOfBlock(v, b int) bool {
	return p.varBlock[v] == b && !p.IsVarStairlinking(v)
}

// IsVarStairlinkingOfBlock reports whether v is shared by b and b+1.
func (p *Partial) IsVarStairlinkingOfBlock(v, b int) bool {
	return p.varBlock[v] == b && p.IsVarStairlinking(v)
}

// BlockOfVar returns the block of a block variable, the first block of a
// stairlinking variable, or -1.
func (p *Partial) BlockOfVar(v int) int { return p.varBlock[v] }

// IsComplete reports whether nothing is open.
func (p *Partial) IsComplete() bool { return len(p.openConss) == 0 && len(p.openVars) == 0 }

// NNewBlocksSince is the difference in block count relative to other.
func (p *Partial) NNewBlocksSince(other *Partial) int { return p.nBlocks - other.nBlocks }

// IsTrivial reports decompositions that carry no structure: one block with
// almost all constraints, everything in the master, nothing assigned, or
// only master and linking variables.
func (p *Partial) IsTrivial() bool {
	nc, nv := p.NConss(), p.NVars()
	switch {
	case p.nBlocks == 1 && float64(len(p.conssForBlocks[0])) >= 0.95*float64(nc):
		return true
	case nc > 0 && len(p.masterConss) == nc:
		return true
	case len(p.openConss) == nc && len(p.openVars) == nv:
		return true
	case nv > 0 && len(p.masterVars)+len(p.linkingVars) == nv:
		return true
	}
	return false
}

// DecType is the shape of a decomposition.
type DecType int

const (
	DecUnknown DecType = iota
	DecDiagonal
	DecStaircase
	DecBordered
	DecArrowhead
)

func (t DecType) String() string {
	switch t {
	case DecDiagonal:
		return "diagonal"
	case DecStaircase:
		return "staircase"
	case DecBordered:
		return "bordered"
	case DecArrowhead:
		return "arrowhead"
	}
	return "unknown"
}

// DecType classifies the shape of a complete decomposition.
func (p *Partial) DecType() DecType {
	if !p.IsComplete() {
		return DecUnknown
	}
	nStair := p.NTotalStairlinkingVars()
	switch {
	case nStair > 0 && len(p.linkingVars) == 0 && len(p.masterConss) == 0:
		return DecStaircase
	case nStair > 0 || len(p.linkingVars) > 0:
		return DecArrowhead
	case len(p.masterConss) > 0:
		return DecBordered
	}
	return DecDiagonal
}

// =============================================================================
// Direct Setters
// =============================================================================

// AddBlock appends an empty block and returns its id.
func (p *Partial) AddBlock() int {
	p.conssForBlocks = append(p.conssForBlocks, nil)
	p.varsForBlocks = append(p.varsForBlocks, nil)
	p.stairVars = append(p.stairVars, nil)
	p.nBlocks++
	p.invalidate()
	return p.nBlocks - 1
}

// SetNBlocks grows the block count to n. Shrinking panics; use
// DeleteEmptyBlocks.
func (p *Partial) SetNBlocks(n int) {
	if n < p.nBlocks {
		panic(fmt.Sprintf("decomp: SetNBlocks(%d) would shrink %d blocks", n, p.nBlocks))
	}
	for p.nBlocks < n {
		p.AddBlock()
	}
}

func (p *Partial) checkBlock(b int) {
	if b < 0 || b >= p.nBlocks {
		panic(fmt.Sprintf("decomp: block %d out of range [0,%d)", b, p.nBlocks))
	}
}

// unassignCons removes c from whatever category holds it.
func (p *Partial) unassignCons(c int) {
	switch {
	case p.IsConsOpen(c):
		p.openConss = removeSorted(p.openConss, c)
		p.consOpen.Clear(uint(c))
	case p.IsConsMaster(c):
		p.masterConss = removeSorted(p.masterConss, c)
		p.consMaster.Clear(uint(c))
	case p.consBlock[c] >= 0:
		b := p.consBlock[c]
		p.conssForBlocks[b] = removeSorted(p.conssForBlocks[b], c)
		p.consBlock[c] = -1
	}
}

// unassignVar removes v from whatever category holds it.
func (p *Partial) unassignVar(v int) {
	switch {
	case p.IsVarOpen(v):
		p.openVars = removeSorted(p.openVars, v)
		p.varOpen.Clear(uint(v))
	case p.IsVarMaster(v):
		p.masterVars = removeSorted(p.masterVars, v)
		p.varMaster.Clear(uint(v))
	case p.IsVarLinking(v):
		p.linkingVars = removeSorted(p.linkingVars, v)
		p.varLinking.Clear(uint(v))
	case p.IsVarStairlinking(v):
		b := p.varBlock[v]
		p.stairVars[b] = removeSorted(p.stairVars[b], v)
		p.varStair.Clear(uint(v))
		p.varBlock[v] = -1
	case p.varBlock[v] >= 0:
		b := p.varBlock[v]
		p.varsForBlocks[b] = removeSorted(p.varsForBlocks[b], v)
		p.varBlock[v] = -1
	}
}

// SetConsToBlock moves c into block b.
func (p *Partial) SetConsToBlock(c, b int) {
	p.checkBlock(b)
	p.unassignCons(c)
	p.conssForBlocks[b] = insertSorted(p.conssForBlocks[b], c)
	p.consBlock[c] = b
	p.invalidate()
}

// SetConsToMaster moves c into the master.
func (p *Partial) SetConsToMaster(c int) {
	p.unassignCons(c)
	p.masterConss = insertSorted(p.masterConss, c)
	p.consMaster.Set(uint(c))
	p.invalidate()
}

// SetVarToBlock moves v into block b as a block-exclusive variable.
func (p *Partial) SetVarToBlock(v, b int) {
	p.checkBlock(b)
	p.unassignVar(v)
	p.varsForBlocks[b] = insertSorted(p.varsForBlocks[b], v)
	p.varBlock[v] = b
	p.invalidate()
}

// SetVarToMaster moves v into the master.
func (p *Partial) SetVarToMaster(v int) {
	p.unassignVar(v)
	p.masterVars = insertSorted(p.masterVars, v)
	p.varMaster.Set(uint(v))
	p.invalidate()
}

// SetVarToLinking marks v as linking.
func (p *Partial) SetVarToLinking(v int) {
	p.unassignVar(v)
	p.linkingVars = insertSorted(p.linkingVars, v)
	p.varLinking.Set(uint(v))
	p.invalidate()
}

// SetVarToStairlinking marks v as shared by b and b+1.
func (p *Partial) SetVarToStairlinking(v, b int) {
	p.checkBlock(b)
	p.checkBlock(b + 1)
	p.unassignVar(v)
	p.stairVars[b] = insertSorted(p.stairVars[b], v)
	p.varStair.Set(uint(v))
	p.varBlock[v] = b
	p.invalidate()
}

// =============================================================================
// Booking
// =============================================================================

func (p *Partial) mustOpenCons(c int) {
	if !p.IsConsOpen(c) {
		panic(fmt.Sprintf("decomp: booking constraint %d which is not open", c))
	}
}

func (p *Partial) mustOpenVar(v int) {
	if !p.IsVarOpen(v) {
		panic(fmt.Sprintf("decomp: booking variable %d which is not open", v))
	}
}

// BookAsBlockCons stages c for block b.
func (p *Partial) BookAsBlockCons(c, b int) {
	p.mustOpenCons(c)
	p.checkBlock(b)
	p.bookedBlockConss = append(p.bookedBlockConss, blockAssign{c, b})
}

// BookAsMasterCons stages c for the master.
func (p *Partial) BookAsMasterCons(c int) {
	p.mustOpenCons(c)
	p.bookedMasterConss = append(p.bookedMasterConss, c)
}

// BookAsBlockVar stages v as a block variable of b.
func (p *Partial) BookAsBlockVar(v, b int) {
	p.mustOpenVar(v)
	p.checkBlock(b)
	p.bookedBlockVars = append(p.bookedBlockVars, blockAssign{v, b})
}

// BookAsMasterVar stages v for the master.
func (p *Partial) BookAsMasterVar(v int) {
	p.mustOpenVar(v)
	p.bookedMasterVars = append(p.bookedMasterVars, v)
}

// BookAsLinkingVar stages v as linking.
func (p *Partial) BookAsLinkingVar(v int) {
	p.mustOpenVar(v)
	p.bookedLinkingVars = append(p.bookedLinkingVars, v)
}

// BookAsStairlinkingVar stages v as shared by firstBlock and firstBlock+1.
func (p *Partial) BookAsStairlinkingVar(v, firstBlock int) {
	p.mustOpenVar(v)
	if firstBlock < 0 || firstBlock+1 >= p.nBlocks {
		panic(fmt.Sprintf("decomp: stairlinking block %d needs a successor (nBlocks=%d)", firstBlock, p.nBlocks))
	}
	p.bookedStairVars = append(p.bookedStairVars, blockAssign{v, firstBlock})
}

// HasBooked reports whether any move is staged.
func (p *Partial) HasBooked() bool {
	return len(p.bookedBlockConss)+len(p.bookedBlockVars)+len(p.bookedMasterConss)+
		len(p.bookedMasterVars)+len(p.bookedLinkingVars)+len(p.bookedStairVars) > 0
}

// FlushBooked commits all staged moves. An item booked more than once keeps
// its first booking in the order block, master, linking, stairlinking.
func (p *Partial) FlushBooked() bool {
	if !p.HasBooked() {
		return false
	}

	var movedConss, movedVars []int
	perBlockConss := make(map[int][]int)
	perBlockVars := make(map[int][]int)
	perBlockStair := make(map[int][]int)
	var toMasterConss, toMasterVars, toLinking []int

	takeCons := func(c int) bool {
		if !p.IsConsOpen(c) {
			return false
		}
		p.consOpen.Clear(uint(c))
		movedConss = append(movedConss, c)
		return true
	}
	takeVar := func(v int) bool {
		if !p.IsVarOpen(v) {
			return false
		}
		p.varOpen.Clear(uint(v))
		movedVars = append(movedVars, v)
		return true
	}

	for _, ba := range p.bookedBlockConss {
		if takeCons(ba.item) {
			perBlockConss[ba.block] = append(perBlockConss[ba.block], ba.item)
			p.consBlock[ba.item] = ba.block
		}
	}
	for _, c := range p.bookedMasterConss {
		if takeCons(c) {
			toMasterConss = append(toMasterConss, c)
			p.consMaster.Set(uint(c))
		}
	}
	for _, ba := range p.bookedBlockVars {
		if takeVar(ba.item) {
			perBlockVars[ba.block] = append(perBlockVars[ba.block], ba.item)
			p.varBlock[ba.item] = ba.block
		}
	}
	for _, v := range p.bookedMasterVars {
		if takeVar(v) {
			toMasterVars = append(toMasterVars, v)
			p.varMaster.Set(uint(v))
		}
	}
	for _, v := range p.bookedLinkingVars {
		if takeVar(v) {
			toLinking = append(toLinking, v)
			p.varLinking.Set(uint(v))
		}
	}
	for _, ba := range p.bookedStairVars {
		if takeVar(ba.item) {
			perBlockStair[ba.block] = append(perBlockStair[ba.block], ba.item)
			p.varBlock[ba.item] = ba.block
			p.varStair.Set(uint(ba.item))
		}
	}

	for b, cs := range perBlockConss {
		p.conssForBlocks[b] = mergeSorted(p.conssForBlocks[b], cs)
	}
	for b, vs := range perBlockVars {
		p.varsForBlocks[b] = mergeSorted(p.varsForBlocks[b], vs)
	}
	for b, vs := range perBlockStair {
		p.stairVars[b] = mergeSorted(p.stairVars[b], vs)
	}
	p.masterConss = mergeSorted(p.masterConss, toMasterConss)
	p.masterVars = mergeSorted(p.masterVars, toMasterVars)
	p.linkingVars = mergeSorted(p.linkingVars, toLinking)

	if len(movedConss) > 0 {
		p.openConss = slices.DeleteFunc(p.openConss, func(c int) bool { return !p.IsConsOpen(c) })
	}
	if len(movedVars) > 0 {
		p.openVars = slices.DeleteFunc(p.openVars, func(v int) bool { return !p.IsVarOpen(v) })
	}

	p.bookedBlockConss = p.bookedBlockConss[:0]
	p.bookedBlockVars = p.bookedBlockVars[:0]
	p.bookedMasterConss = p.bookedMasterConss[:0]
	p.bookedMasterVars = p.bookedMasterVars[:0]
	p.bookedLinkingVars = p.bookedLinkingVars[:0]
	p.bookedStairVars = p.bookedStairVars[:0]
	p.invalidate()
	return len(movedConss)+len(movedVars) > 0
}

// =============================================================================
// Sorted Slice Helpers
// =============================================================================

func insertSorted(s []int, x int) []int {
	i, found := slices.BinarySearch(s, x)
	if found {
		return s
	}
	return slices.Insert(s, i, x)
}

func removeSorted(s []int, x int) []int {
	i, found := slices.BinarySearch(s, x)
	if !found {
		return s
	}
	return slices.Delete(s, i, i+1)
}

// mergeSorted merges xs (any order) into the ascending list s.
func mergeSorted(s, xs []int) []int {
	if len(xs) == 0 {
		return s
	}
	slices.Sort(xs)
	out := make([]int, 0, len(s)+len(xs))
	i, j := 0, 0
	for i < len(s) && j < len(xs) {
		switch {
		case s[i] < xs[j]:
			out = append(out, s[i])
			i++
		case s[i] > xs[j]:
			out = append(out, xs[j])
			j++
		default:
			out = append(out, s[i])
			i++
			j++
		}
	}
	out = append(out, s[i:]...)
	return append(out, xs[j:]...)
}
