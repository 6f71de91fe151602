package decomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/config"
)

// twoBlocks builds c0:{x0,x1} and c1:{x2,x3} as blocks 0 and 1 plus any
// extra rows as master constraints.
func twoBlocks(t *testing.T, cfg config.Config, master ...[]int) *Partial {
	t.Helper()
	rows := append([][]int{{0, 1}, {2, 3}}, master...)
	p := newPartialWith(t, cfg, 4, rows...)
	p.SetNBlocks(2)
	setBlock(p, 0, []int{0}, []int{0, 1})
	setBlock(p, 1, []int{1}, []int{2, 3})
	for i := range master {
		p.SetConsToMaster(2 + i)
	}
	requireConsistent(t, p)
	return p
}

func TestAggregationSequential(t *testing.T) {
	p := twoBlocks(t, config.Default())
	info := p.CalcAggregationInformation(SequentialChecker{})
	require.True(t, info.Available)
	require.Equal(t, 1, info.NEquivalenceClasses())
	cl := info.Classes[0]
	assert.Equal(t, 0, cl.Representative)
	assert.Equal(t, []int{0, 1}, cl.Members)
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, cl.VarMaps)
	assert.Equal(t, 0, info.ClassOf(1))
	assert.Equal(t, -1, info.ClassOf(7))
}

func TestAggregationSignatureIgnoresItemOrder(t *testing.T) {
	// The master row couples x1 and x2, so matching must pair x1 with x2.
	p := twoBlocks(t, config.Default(), []int{1, 2})

	seq := p.CalcAggregationInformation(SequentialChecker{})
	assert.Equal(t, 2, seq.NEquivalenceClasses())

	sig := p.CalcAggregationInformation(SignatureChecker{})
	require.Equal(t, 1, sig.NEquivalenceClasses())
	assert.Equal(t, []int{3, 2}, sig.Classes[0].VarMaps[1])
	assert.Equal(t, config.CheckerSignature, sig.Checker)
}

func TestAggregationUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Aggregation.LimitConssPerBlock = 0
	p := twoBlocks(t, cfg)
	info := p.Aggregation()
	assert.False(t, info.Available)
	assert.Equal(t, 2, info.NEquivalenceClasses())

	cfg = config.Default()
	cfg.Aggregation.Enabled = false
	assert.False(t, twoBlocks(t, cfg).Aggregation().Available)

	open := newPartial(t, 2, diagonal(2)...)
	assert.False(t, open.Aggregation().Available, "incomplete")
}

func TestAggregationDistinctBlocks(t *testing.T) {
	p := newPartial(t, 3, []int{0}, []int{1, 2})
	p.CompleteByConnected()
	info := p.Aggregation()
	require.True(t, info.Available)
	assert.Equal(t, 2, info.NEquivalenceClasses())
}

func TestChooseIdentityChecker(t *testing.T) {
	assert.IsType(t, SequentialChecker{}, ChooseIdentityChecker(config.Aggregation{Checker: config.CheckerSequential}))
	assert.IsType(t, SignatureChecker{}, ChooseIdentityChecker(config.Aggregation{Checker: config.CheckerAuto}))
}
