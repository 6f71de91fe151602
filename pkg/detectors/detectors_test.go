package detectors

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/pool"
	"github.com/matzehuels/blocktower/pkg/problem"
)

type row struct {
	vars     []int
	coefs    []float64
	lhs, rhs float64
}

// packing is sum(x) <= 1 over vars.
func packing(vars ...int) row {
	coefs := make([]float64, len(vars))
	for i := range coefs {
		coefs[i] = 1
	}
	return row{vars: vars, coefs: coefs, lhs: math.Inf(-1), rhs: 1}
}

func build(t *testing.T, vars []problem.Variable, rows ...row) *problem.Problem {
	t.Helper()
	p := problem.New("detectors")
	for _, v := range vars {
		_, err := p.AddVar(v)
		require.NoError(t, err)
	}
	for i, r := range rows {
		terms := make([]problem.Term, len(r.vars))
		for k, v := range r.vars {
			terms[k] = problem.Term{Var: v, Coef: r.coefs[k]}
		}
		_, err := p.AddCons(problem.Constraint{Name: fmt.Sprintf("c%d", i), Lhs: r.lhs, Rhs: r.rhs, Terms: terms})
		require.NoError(t, err)
	}
	return p
}

func binaries(names ...string) []problem.Variable {
	out := make([]problem.Variable, len(names))
	for i, n := range names {
		out[i] = problem.Variable{Name: n, Ub: 1, Type: problem.Binary}
	}
	return out
}

func input(idx *decomp.Index, cfg config.Config) *pool.Input {
	return &pool.Input{
		Partial: decomp.New(idx, cfg),
		Index:   idx,
		Config:  cfg,
		Logger:  log.New(io.Discard),
	}
}

func TestAllMatchesConfiguredNames(t *testing.T) {
	defaults := config.DefaultDetectors()
	for _, d := range All() {
		_, ok := defaults[d.Name()]
		assert.True(t, ok, "%s has a default schedule", d.Name())
		got, ok := ByName(d.Name())
		require.True(t, ok)
		assert.Equal(t, d.Name(), got.Name())
	}
	_, ok := ByName("missing")
	assert.False(t, ok)
}

func TestClassSubsets(t *testing.T) {
	c := &classify.Classifier{
		ClassNames: []string{"a", "m", "b", "d"},
		Roles:      []classify.Role{classify.RoleAny, classify.RoleMaster, classify.RoleBlock, classify.RoleAny},
	}
	got := classSubsets(c, classify.RoleMaster, classify.RoleBlock)
	assert.Equal(t, [][]bool{
		{false, true, false, false},
		{true, true, false, false},
		{false, true, false, true},
		{true, true, false, true},
	}, got)

	all := &classify.Classifier{ClassNames: []string{"a", "b"}, Roles: []classify.Role{classify.RoleAny, classify.RoleAny}}
	assert.Len(t, classSubsets(all, classify.RoleMaster, classify.RoleBlock), 2, "neither empty nor full selections")
}

func TestConnected(t *testing.T) {
	prob := build(t, binaries("x0", "x1", "x2"), packing(0), packing(1), packing(2))
	for _, threshold := range []int{0, 100} {
		idx := decomp.NewIndex(prob, threshold)
		in := input(idx, config.Default())
		out := Connected{}.Finish(context.Background(), in)
		require.Equal(t, pool.StatusSuccess, out.Status)
		require.Len(t, out.Decomps, 1)
		d := out.Decomps[0]
		assert.True(t, d.IsComplete())
		assert.Equal(t, 3, d.NBlocks())
		assert.NoError(t, d.CheckConsistency())
	}
}

func TestGreedy(t *testing.T) {
	prob := build(t, binaries("x0", "x1"), packing(0), packing(1), packing(0, 1))
	in := input(decomp.NewIndex(prob, 0), config.Default())
	out := Greedy{}.Finish(context.Background(), in)
	require.Equal(t, pool.StatusSuccess, out.Status)
	d := out.Decomps[0]
	assert.Equal(t, 2, d.NBlocks())
	assert.Equal(t, []int{2}, d.MasterConss())
}

// coupled has two packing rows and one partitioning row over all four
// variables.
func coupled(t *testing.T) *problem.Problem {
	all := row{vars: []int{0, 1, 2, 3}, coefs: []float64{1, 1, 1, 1}, lhs: 1, rhs: 1}
	return build(t, binaries("x0", "x1", "x2", "x3"), packing(0, 1), packing(2, 3), all)
}

func TestConsClass(t *testing.T) {
	idx := decomp.NewIndex(coupled(t), 0)
	byType := classify.ByConsType(idx)
	require.Equal(t, []string{"setpacking", "setpartitioning"}, byType.ClassNames)

	in := input(idx, config.Default())
	in.ConsClassifiers = []*classify.Classifier{byType}
	out := ConsClass{}.Propagate(context.Background(), in)
	require.Equal(t, pool.StatusSuccess, out.Status)
	require.Len(t, out.Decomps, 2)

	packingMaster, partMaster := out.Decomps[0], out.Decomps[1]
	assert.Equal(t, []int{0, 1}, packingMaster.MasterConss())
	assert.Equal(t, 1, packingMaster.NBlocks())

	assert.Equal(t, []int{2}, partMaster.MasterConss())
	assert.Equal(t, 2, partMaster.NBlocks())
	assert.Equal(t, decomp.DecBordered, partMaster.DecType())
	for _, d := range out.Decomps {
		assert.True(t, d.IsComplete())
		assert.NoError(t, d.CheckConsistency())
	}
	assert.Equal(t, 3, in.Partial.NOpenConss(), "the input state is left alone")

	t.Run("too many classes", func(t *testing.T) {
		cfg := config.Default()
		cfg.MaxClassesForDetection = 1
		in := input(idx, cfg)
		in.ConsClassifiers = []*classify.Classifier{byType}
		assert.Equal(t, pool.StatusNotFound, ConsClass{}.Propagate(context.Background(), in).Status)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		in := input(idx, config.Default())
		in.ConsClassifiers = []*classify.Classifier{byType}
		out := ConsClass{}.Propagate(ctx, in)
		assert.Equal(t, pool.StatusError, out.Status)
		assert.ErrorIs(t, out.Err, context.Canceled)
	})
}

func TestVarClass(t *testing.T) {
	vars := append(binaries("x0", "x1"), problem.Variable{Name: "y", Ub: 5, Type: problem.Integer})
	prob := build(t, vars,
		row{vars: []int{0, 2}, coefs: []float64{1, 1}, lhs: math.Inf(-1), rhs: 5},
		row{vars: []int{1, 2}, coefs: []float64{1, 1}, lhs: math.Inf(-1), rhs: 5})
	idx := decomp.NewIndex(prob, 0)
	byType := classify.ByVarType(idx)
	require.Equal(t, 2, byType.NClasses())

	in := input(idx, config.Default())
	in.VarClassifiers = []*classify.Classifier{byType}
	out := VarClass{}.Propagate(context.Background(), in)
	require.Equal(t, pool.StatusSuccess, out.Status)
	require.Len(t, out.Decomps, 2)

	binLinking, intLinking := out.Decomps[0], out.Decomps[1]
	assert.Equal(t, []int{0, 1}, binLinking.LinkingVars())
	assert.Equal(t, 1, binLinking.NBlocks())

	assert.Equal(t, []int{2}, intLinking.LinkingVars())
	assert.Equal(t, 2, intLinking.NBlocks())
	for _, d := range out.Decomps {
		assert.True(t, d.IsComplete())
		assert.NoError(t, d.CheckConsistency())
	}
}

func TestSetPartMaster(t *testing.T) {
	vars := append(binaries("x0", "x1"),
		problem.Variable{Name: "y0", Ub: 5, Type: problem.Integer},
		problem.Variable{Name: "y1", Ub: 5, Type: problem.Integer})
	prob := build(t, vars,
		packing(0, 1),
		row{vars: []int{2, 3}, coefs: []float64{2, 3}, lhs: math.Inf(-1), rhs: 7})
	in := input(decomp.NewIndex(prob, 0), config.Default())

	out := SetPartMaster{}.Propagate(context.Background(), in)
	require.Equal(t, pool.StatusSuccess, out.Status)
	d := out.Decomps[0]
	assert.Equal(t, []int{0}, d.MasterConss())
	assert.Equal(t, []int{1}, d.OpenConss())

	allPacking := build(t, binaries("x0", "x1", "x2", "x3"), packing(0, 1), packing(2, 3))
	in = input(decomp.NewIndex(allPacking, 0), config.Default())
	assert.Equal(t, pool.StatusNotFound, SetPartMaster{}.Propagate(context.Background(), in).Status)
}

func TestStairlinking(t *testing.T) {
	prob := build(t, binaries("x0", "x1", "s"), packing(0, 2), packing(1, 2))
	idx := decomp.NewIndex(prob, 0)
	in := input(idx, config.Default())
	d := in.Partial
	d.SetNBlocks(2)
	d.SetConsToBlock(0, 0)
	d.SetVarToBlock(0, 0)
	d.SetConsToBlock(1, 1)
	d.SetVarToBlock(1, 1)
	d.SetVarToLinking(2)

	out := Stairlinking{}.Postprocess(context.Background(), in)
	require.Equal(t, pool.StatusSuccess, out.Status)
	assert.Equal(t, []int{2}, out.Decomps[0].StairlinkingVars(0))
	assert.Equal(t, decomp.DecStaircase, out.Decomps[0].DecType())

	single := input(idx, config.Default())
	single.Partial.CompleteByConnected()
	require.Equal(t, 1, single.Partial.NBlocks())
	assert.Equal(t, pool.StatusNotFound, Stairlinking{}.Postprocess(context.Background(), single).Status)
}

func TestPoolWithBuiltins(t *testing.T) {
	cfg := config.Default()
	cfg.CheckConsistency = true
	p, err := pool.New(coupled(t), cfg,
		pool.WithDetectors(All()...),
		pool.WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	sum, err := p.FindDecompositions(context.Background())
	require.NoError(t, err)
	require.NotZero(t, sum.Finished)

	ranked := p.Ranked()
	assert.True(t, slices.ContainsFunc(ranked, func(d *decomp.Partial) bool {
		return d.NBlocks() == 2 && slices.Equal(d.MasterConss(), []int{2})
	}), "the bordered decomposition is found")
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score(p.ScoreType()), ranked[i].Score(p.ScoreType()))
	}
}
