package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcStairlinkingVarsPath(t *testing.T) {
	// Block graph 0 - 2 - 1 through x3 and x4.
	p := newPartial(t, 5, []int{0, 3}, []int{1, 3, 4}, []int{2, 4})
	p.SetNBlocks(3)
	setBlock(p, 0, []int{0}, []int{0})
	setBlock(p, 1, []int{2}, []int{2})
	setBlock(p, 2, []int{1}, []int{1})
	p.SetVarToLinking(3)
	p.SetVarToLinking(4)
	requireConsistent(t, p)

	require.True(t, p.CalcStairlinkingVars(false))
	requireConsistent(t, p)
	assert.Equal(t, 3, p.NBlocks())
	assert.Equal(t, []int{0}, p.ConssForBlock(0))
	assert.Equal(t, []int{1}, p.ConssForBlock(1))
	assert.Equal(t, []int{2}, p.ConssForBlock(2))
	assert.Equal(t, []int{3}, p.StairlinkingVars(0))
	assert.Equal(t, []int{4}, p.StairlinkingVars(1))
	assert.Empty(t, p.LinkingVars())
	assert.Equal(t, DecStaircase, p.DecType())

	assert.False(t, p.CalcStairlinkingVars(false), "already a staircase")
}

func TestCalcStairlinkingVarsCycle(t *testing.T) {
	// Triangle: x3 joins 0-1, x4 joins 1-2, x5 joins 0-2.
	build := func() *Partial {
		p := newPartial(t, 6, []int{0, 3, 5}, []int{1, 3, 4}, []int{2, 4, 5})
		p.SetNBlocks(3)
		for b := range 3 {
			setBlock(p, b, []int{b}, []int{b})
		}
		for v := 3; v < 6; v++ {
			p.SetVarToLinking(v)
		}
		return p
	}

	p := build()
	require.True(t, p.CalcStairlinkingVars(true))
	requireConsistent(t, p)
	assert.Equal(t, 3, p.NBlocks())
	assert.Equal(t, 2, p.NTotalStairlinkingVars())
	assert.Equal(t, []int{5}, p.LinkingVars())
	assert.Equal(t, DecArrowhead, p.DecType())
}

func TestCalcStairlinkingVarsSkipsOpenAndWide(t *testing.T) {
	// x3 touches three blocks and stays linking.
	p := newPartial(t, 4, []int{0, 3}, []int{1, 3}, []int{2, 3})
	p.SetNBlocks(3)
	for b := range 3 {
		setBlock(p, b, []int{b}, []int{b})
	}
	p.SetVarToLinking(3)

	assert.False(t, p.CalcStairlinkingVars(true))
	assert.Equal(t, []int{3}, p.LinkingVars())

	single := newPartial(t, 1, []int{0})
	single.CompleteByConnected()
	assert.False(t, single.CalcStairlinkingVars(true))
}
