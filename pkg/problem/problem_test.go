package problem

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/errors"
)

const sampleTOML = `
name = "sample"

[[vars]]
name = "x1"
type = "binary"

[[vars]]
name = "x2"
type = "binary"

[[vars]]
name = "y"
lb = -5.0
ub = 5.0
obj = 2.5

[[vars]]
name = "z"
lb = 0.0
ub = 0.0

[[conss]]
name = "part"
lhs = 1.0
rhs = 1.0
terms = [{ var = "x1", coef = 1.0 }, { var = "x2", coef = 1.0 }]

[[conss]]
name = "cap"
rhs = 10.0
terms = [{ var = "y", coef = 2.0 }, { var = "x1", coef = 3.0 }, { var = "z", coef = 1.0 }]
`

func TestReadTOML(t *testing.T) {
	p, err := Read(strings.NewReader(sampleTOML), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "sample", p.Name)
	require.Equal(t, 4, p.NVars())
	require.Equal(t, 2, p.NConss())

	x1 := p.Vars[0]
	assert.Equal(t, Binary, x1.Type)
	assert.Equal(t, 0.0, x1.Lb)
	assert.Equal(t, 1.0, x1.Ub)
	assert.Equal(t, "x1", x1.Ref)

	y := p.Vars[2]
	assert.Equal(t, Continuous, y.Type)
	assert.Equal(t, -5.0, y.Lb)
	assert.Equal(t, 2.5, y.Obj)

	assert.True(t, p.Vars[3].FixedToZero())

	capRow := p.Conss[1]
	assert.True(t, math.IsInf(capRow.Lhs, -1))
	assert.Equal(t, 10.0, capRow.Rhs)
	assert.Len(t, capRow.Terms, 3)
	assert.Equal(t, 5, p.NNonzeros())
}

func TestWriteReadRoundTrip(t *testing.T) {
	p, err := Read(strings.NewReader(sampleTOML), FormatTOML)
	require.NoError(t, err)

	for _, format := range []Format{FormatTOML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, p, format))

			q, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, p.Vars, q.Vars)
			assert.Equal(t, p.Conss, q.Conss)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(sampleTOML, `name = "sample"`, "", 1)), 0o644))

	p, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model", p.Name)

	_, err = ReadFile(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	_, err = ReadFile(filepath.Join(dir, "model.mps"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown var", `
[[vars]]
name = "x"
[[conss]]
name = "c"
terms = [{ var = "nope", coef = 1.0 }]`},
		{"duplicate var", `
[[vars]]
name = "x"
[[vars]]
name = "x"`},
		{"bad bounds", `
[[vars]]
name = "x"
lb = 3.0
ub = 1.0`},
		{"bad type", `
[[vars]]
name = "x"
type = "complex"`},
		{"no vars", `name = "empty"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc), FormatTOML)
			assert.Error(t, err)
		})
	}
}

func TestAddConsMergesTerms(t *testing.T) {
	p := New("merge")
	x, err := p.AddVar(Variable{Name: "x", Ub: 1, Type: Binary})
	require.NoError(t, err)
	y, err := p.AddVar(Variable{Name: "y", Ub: 1, Type: Binary})
	require.NoError(t, err)

	_, err = p.AddCons(Constraint{Name: "c", Lhs: 0, Rhs: 1, Terms: []Term{{x, 1}, {y, 2}, {y, -2}, {x, 1}}})
	require.NoError(t, err)
	assert.Equal(t, []Term{{x, 2}}, p.Conss[0].Terms)
}

func TestClone(t *testing.T) {
	p, err := Read(strings.NewReader(sampleTOML), FormatTOML)
	require.NoError(t, err)

	q := p.Clone()
	q.Conss[0].Terms[0].Coef = 99
	q.Vars[0].Name = "renamed"

	assert.Equal(t, 1.0, p.Conss[0].Terms[0].Coef)
	assert.Equal(t, "x1", p.Vars[0].Name)
	i, ok := q.ConsIndex("cap")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestConsType(t *testing.T) {
	inf := math.Inf(1)
	p := New("types")
	var bins []int
	for _, n := range []string{"a", "b", "c", "d"} {
		i, err := p.AddVar(Variable{Name: n, Ub: 1, Type: Binary})
		require.NoError(t, err)
		bins = append(bins, i)
	}
	yi, err := p.AddVar(Variable{Name: "y", Ub: inf})
	require.NoError(t, err)
	ki, err := p.AddVar(Variable{Name: "k", Ub: 10, Type: Integer})
	require.NoError(t, err)

	unit := func(vars ...int) []Term {
		ts := make([]Term, len(vars))
		for i, v := range vars {
			ts[i] = Term{v, 1}
		}
		return ts
	}

	tests := []struct {
		name string
		cons Constraint
		want ConsType
	}{
		{"empty", Constraint{Lhs: -inf, Rhs: 1}, ConsEmpty},
		{"singleton", Constraint{Lhs: -inf, Rhs: 1, Terms: unit(bins[0])}, ConsSingleton},
		{"aggregation", Constraint{Lhs: 0, Rhs: 0, Terms: []Term{{bins[0], 1}, {yi, -1}}}, ConsAggregation},
		{"varbound", Constraint{Lhs: -inf, Rhs: 0, Terms: []Term{{yi, 1}, {bins[0], -5}}}, ConsVarbound},
		{"setpartitioning", Constraint{Lhs: 1, Rhs: 1, Terms: unit(bins...)}, ConsSetpartitioning},
		{"setpacking", Constraint{Lhs: -inf, Rhs: 1, Terms: unit(bins...)}, ConsSetpacking},
		{"setcovering", Constraint{Lhs: 1, Rhs: inf, Terms: unit(bins...)}, ConsSetcovering},
		{"negated setcovering", Constraint{Lhs: -inf, Rhs: -1, Terms: []Term{{bins[0], -1}, {bins[1], -1}, {bins[2], -1}}}, ConsSetcovering},
		{"cardinality", Constraint{Lhs: 2, Rhs: 2, Terms: unit(bins...)}, ConsCardinality},
		{"invknapsack", Constraint{Lhs: -inf, Rhs: 2, Terms: unit(bins...)}, ConsInvknapsack},
		{"knapsack", Constraint{Lhs: -inf, Rhs: 7, Terms: []Term{{bins[0], 3}, {bins[1], 4}, {bins[2], 5}}}, ConsKnapsack},
		{"equknapsack", Constraint{Lhs: 7, Rhs: 7, Terms: []Term{{bins[0], 3}, {bins[1], 4}, {bins[2], 5}}}, ConsEquknapsack},
		{"binpacking", Constraint{Lhs: -inf, Rhs: 0, Terms: []Term{{bins[0], 3}, {bins[1], 4}, {bins[2], -6}}}, ConsBinpacking},
		{"intknapsack", Constraint{Lhs: -inf, Rhs: 9, Terms: []Term{{ki, 2}, {bins[0], 1}, {bins[1], 3}}}, ConsIntKnapsack},
		{"general", Constraint{Lhs: -inf, Rhs: 9.5, Terms: []Term{{yi, 2.5}, {bins[0], 1}, {ki, 3}}}, ConsGeneral},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cons
			c.Name = "c" + string(rune('a'+i))
			ci, err := p.AddCons(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ConsType(ci), "got %s", p.ConsType(ci))
		})
	}
}

func TestConsTypePredicates(t *testing.T) {
	assert.True(t, ConsSetpacking.IsSetppc())
	assert.True(t, ConsSetcovering.IsSetppc())
	assert.False(t, ConsCardinality.IsSetppc())
	assert.True(t, ConsCardinality.IsCardinality())

	ct, err := ParseConsType("Knapsack")
	require.NoError(t, err)
	assert.Equal(t, ConsKnapsack, ct)
	_, err = ParseConsType("quadratic")
	assert.Error(t, err)
}
