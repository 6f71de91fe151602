package pool

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// newProblem builds nVars binaries x0.. and one packing row c0.. per entry
// of rows.
func newProblem(t testing.TB, nVars int, rows ...[]int) *problem.Problem {
	t.Helper()
	p := problem.New("pool")
	for i := range nVars {
		_, err := p.AddVar(problem.Variable{Name: fmt.Sprintf("x%d", i), Ub: 1, Type: problem.Binary})
		require.NoError(t, err)
	}
	for i, r := range rows {
		terms := make([]problem.Term, len(r))
		for k, v := range r {
			terms[k] = problem.Term{Var: v, Coef: 1}
		}
		_, err := p.AddCons(problem.Constraint{Name: fmt.Sprintf("c%d", i), Lhs: math.Inf(-1), Rhs: 1, Terms: terms})
		require.NoError(t, err)
	}
	return p
}

func diagonal(n int) [][]int {
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = []int{i}
	}
	return rows
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.CheckConsistency = true
	return cfg
}

func newPool(t testing.TB, cfg config.Config, prob *problem.Problem, opts ...Option) *Pool {
	t.Helper()
	p, err := New(prob, cfg, opts...)
	require.NoError(t, err)
	return p
}

// Collaborators built from plain functions.

type propFunc struct {
	name string
	fn   func(*Input) Output
}

func (f propFunc) Name() string { return f.name }

func (f propFunc) Propagate(_ context.Context, in *Input) Output { return f.fn(in) }

type finFunc struct {
	name string
	fn   func(*Input) Output
}

func (f finFunc) Name() string { return f.name }

func (f finFunc) Finish(_ context.Context, in *Input) Output { return f.fn(in) }

type postFunc struct {
	name string
	fn   func(*Input) Output
}

func (f postFunc) Name() string { return f.name }

func (f postFunc) Postprocess(_ context.Context, in *Input) Output { return f.fn(in) }

var connectedFinisher = finFunc{name: "connected", fn: func(in *Input) Output {
	in.Partial.CompleteByConnected()
	return Success(in.Partial)
}}

// masterFirstOpen moves the first open constraint to the master.
var masterFirstOpen = propFunc{name: "master", fn: func(in *Input) Output {
	d := in.Partial
	if d.NOpenConss() == 0 {
		return NotFound()
	}
	d.BookAsMasterCons(d.OpenConss()[0])
	d.FlushBooked()
	return Success(d)
}}
