package decomp

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// newProblem builds a problem over nVars binaries x0.. with one packing row
// c0.. per entry of rows listing the variables it uses.
func newProblem(t testing.TB, nVars int, rows ...[]int) *problem.Problem {
	t.Helper()
	p := problem.New("test")
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

func newPartialWith(t testing.TB, cfg config.Config, nVars int, rows ...[]int) *Partial {
	t.Helper()
	return New(NewIndex(newProblem(t, nVars, rows...), cfg.ConssAdjacencyThreshold), cfg)
}

func newPartial(t testing.TB, nVars int, rows ...[]int) *Partial {
	t.Helper()
	return newPartialWith(t, config.Default(), nVars, rows...)
}

// diagonal returns rows where constraint i touches only variable i.
func diagonal(n int) [][]int {
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = []int{i}
	}
	return rows
}

// setBlock places constraints and variables into block b via the setters.
func setBlock(p *Partial, b int, conss, vars []int) {
	for _, c := range conss {
		p.SetConsToBlock(c, b)
	}
	for _, v := range vars {
		p.SetVarToBlock(v, b)
	}
}

func requireConsistent(t testing.TB, p *Partial) {
	t.Helper()
	require.NoError(t, p.CheckConsistency(), p.Describe())
}
