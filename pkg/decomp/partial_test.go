package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/errors"
)

func TestNewIsAllOpen(t *testing.T) {
	p := newPartial(t, 3, []int{0, 1}, []int{1, 2})
	assert.Equal(t, []int{0, 1}, p.OpenConss())
	assert.Equal(t, []int{0, 1, 2}, p.OpenVars())
	assert.Equal(t, 0, p.NBlocks())
	assert.False(t, p.IsComplete())
	assert.True(t, p.IsTrivial())
	requireConsistent(t, p)
}

func TestBookingRoundTrip(t *testing.T) {
	p := newPartial(t, 3, []int{0, 1}, []int{1, 2}, []int{2})
	b := p.AddBlock()

	p.BookAsBlockCons(1, b)
	assert.True(t, p.IsConsOpen(1), "booking alone changes nothing")

	assert.True(t, p.FlushBooked())
	assert.False(t, p.IsConsOpen(1))
	assert.True(t, p.IsConsBlockConsOfBlock(1, b))
	assert.Equal(t, []int{1}, p.ConssForBlock(b))
	assert.Equal(t, []int{0, 2}, p.OpenConss())

	p.BookAsMasterCons(2)
	p.BookAsMasterCons(0)
	p.BookAsBlockVar(2, b)
	p.BookAsBlockVar(1, b)
	p.BookAsLinkingVar(0)
	require.True(t, p.FlushBooked())
	assert.Equal(t, []int{0, 2}, p.MasterConss(), "lists stay sorted")
	assert.Equal(t, []int{1, 2}, p.VarsForBlock(b))
	assert.Equal(t, []int{0}, p.LinkingVars())
	assert.True(t, p.IsComplete())
	assert.False(t, p.FlushBooked(), "nothing left to flush")
	requireConsistent(t, p)
}

func TestFlushBlockBookingWins(t *testing.T) {
	p := newPartial(t, 1, []int{0})
	b := p.AddBlock()
	p.BookAsMasterCons(0)
	p.BookAsBlockCons(0, b)
	p.FlushBooked()
	assert.True(t, p.IsConsBlockConsOfBlock(0, b))
	assert.False(t, p.IsConsMaster(0))
}

func TestBookingPreconditions(t *testing.T) {
	p := newPartial(t, 2, []int{0}, []int{1})
	b := p.AddBlock()
	p.SetConsToBlock(0, b)

	assert.Panics(t, func() { p.BookAsMasterCons(0) }, "constraint not open")
	assert.Panics(t, func() { p.BookAsBlockCons(1, 3) }, "block out of range")
	assert.Panics(t, func() { p.BookAsStairlinkingVar(0, b) }, "last block has no successor")
	assert.Panics(t, func() { p.SetNBlocks(0) }, "blocks never shrink")

	p.SetVarToMaster(1)
	assert.Panics(t, func() { p.BookAsLinkingVar(1) }, "variable not open")
}

func TestSettersMoveBetweenCategories(t *testing.T) {
	p := newPartial(t, 3, []int{0, 1}, []int{1, 2})
	p.SetNBlocks(2)
	p.SetConsToMaster(0)
	p.SetConsToBlock(0, 1)
	assert.Empty(t, p.MasterConss())
	assert.Equal(t, 1, p.BlockOfCons(0))

	p.SetVarToLinking(1)
	p.SetVarToStairlinking(1, 0)
	assert.True(t, p.IsVarStairlinkingOfBlock(1, 0))
	assert.Empty(t, p.LinkingVars())
	assert.Equal(t, 1, p.NTotalStairlinkingVars())

}

func TestCloneIsIndependent(t *testing.T) {
	p := newPartial(t, 2, []int{0}, []int{1})
	p.AddBlock()
	p.SetConsToBlock(0, 0)
	p.AddStep(Step{Detector: "seed"})

	q := p.Clone()
	q.SetConsToMaster(1)
	q.AddStep(Step{Detector: "more"})

	assert.True(t, p.IsConsOpen(1))
	assert.Equal(t, []string{"seed"}, p.Detectors())
	assert.Equal(t, "seed|more", q.DetectorChainString())
	assert.Equal(t, []int{0}, q.ConssForBlock(0))
}

func TestCheckConsistencyDetectsCorruption(t *testing.T) {
	t.Run("double assignment", func(t *testing.T) {
		p := newPartial(t, 1, []int{0})
		p.masterConss = append(p.masterConss, 0)
		err := p.CheckConsistency()
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInconsistent))
	})
	t.Run("unsorted", func(t *testing.T) {
		p := newPartial(t, 2, []int{0}, []int{1})
		p.openConss = []int{1, 0}
		assert.Error(t, p.CheckConsistency())
	})
	t.Run("empty block", func(t *testing.T) {
		p := newPartial(t, 1, []int{0})
		p.AddBlock()
		assert.Error(t, p.CheckConsistency())
	})
	t.Run("misplaced block variable", func(t *testing.T) {
		p := newPartial(t, 2, []int{0, 1}, []int{1})
		p.SetNBlocks(2)
		setBlock(p, 0, []int{0}, []int{0})
		setBlock(p, 1, []int{1}, []int{1})
		assert.Error(t, p.CheckConsistency(), "x1 belongs to block 1 but occurs in c0")
	})
}

func TestHashPermutationInvariance(t *testing.T) {
	rows := [][]int{{0, 1}, {2, 3}, {4}, {0, 2, 4}}
	build := func(order []int) *Partial {
		p := newPartial(t, 5, rows...)
		blocks := [][2][]int{
			{{0}, {0, 1}},
			{{1}, {2, 3}},
			{{2}, {4}},
		}
		p.SetNBlocks(3)
		for b, src := range order {
			setBlock(p, b, blocks[src][0], blocks[src][1])
		}
		p.SetConsToMaster(3)
		return p
	}

	a := build([]int{0, 1, 2})
	b := build([]int{2, 0, 1})
	requireConsistent(t, a)
	requireConsistent(t, b)
	assert.Equal(t, a.CalcHashvalue(), b.CalcHashvalue())
	assert.True(t, a.IsEqual(b))

	c := build([]int{0, 1, 2})
	c.SetConsToBlock(3, 0)
	assert.False(t, a.IsEqual(c))
}

func TestIsEqualStairlinkingUsesBlockPairs(t *testing.T) {
	// c0:{x0,s} c1:{x1,s}
	build := func(swap bool) *Partial {
		p := newPartial(t, 3, []int{0, 2}, []int{1, 2})
		p.SetNBlocks(2)
		if swap {
			setBlock(p, 0, []int{1}, []int{1})
			setBlock(p, 1, []int{0}, []int{0})
		} else {
			setBlock(p, 0, []int{0}, []int{0})
			setBlock(p, 1, []int{1}, []int{1})
		}
		p.SetVarToStairlinking(2, 0)
		return p
	}
	a, b := build(false), build(true)
	requireConsistent(t, a)
	requireConsistent(t, b)
	assert.True(t, a.IsEqual(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestDecType(t *testing.T) {
	p := newPartial(t, 2, diagonal(2)...)
	assert.Equal(t, DecUnknown, p.DecType())
	p.CompleteByConnected()
	assert.Equal(t, DecDiagonal, p.DecType())

	q := newPartial(t, 3, []int{0, 2}, []int{1, 2}, []int{0, 1})
	q.SetNBlocks(2)
	setBlock(q, 0, []int{0}, []int{0})
	setBlock(q, 1, []int{1}, []int{1})
	q.SetConsToMaster(2)
	q.SetVarToLinking(2)
	assert.Equal(t, DecArrowhead, q.DecType())
	q.SetVarToStairlinking(2, 0)
	assert.Equal(t, DecArrowhead, q.DecType(), "master constraints prevent staircase")

	r := newPartial(t, 2, []int{0}, []int{1}, []int{0, 1})
	r.SetNBlocks(2)
	setBlock(r, 0, []int{0}, []int{0})
	setBlock(r, 1, []int{1}, []int{1})
	r.SetConsToMaster(2)
	assert.Equal(t, DecBordered, r.DecType())
}
