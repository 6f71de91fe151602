package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// exportIndex indexes x0, x1, x2, rows c0 {x0}, c1 {x1}, c2 {x0,x1,x2},
// a removed row "gone" and a variable z fixed to zero.
func exportIndex(t *testing.T) *decomp.Index {
	t.Helper()
	p := problem.New("export")
	for _, v := range []problem.Variable{
		{Name: "x0", Ub: 1, Type: problem.Binary},
		{Name: "x1", Ub: 1, Type: problem.Binary},
		{Name: "x2", Ub: 1, Type: problem.Binary},
		{Name: "z"},
	} {
		_, err := p.AddVar(v)
		require.NoError(t, err)
	}
	rows := []problem.Constraint{
		{Name: "c0", Terms: []problem.Term{{Var: 0, Coef: 1}}},
		{Name: "c1", Terms: []problem.Term{{Var: 1, Coef: 1}}},
		{Name: "c2", Terms: []problem.Term{{Var: 0, Coef: 1}, {Var: 1, Coef: 1}, {Var: 2, Coef: 1}}},
		{Name: "gone", Removed: true, Terms: []problem.Term{{Var: 0, Coef: 1}}},
	}
	for _, c := range rows {
		c.Lhs, c.Rhs = math.Inf(-1), 1
		_, err := p.AddCons(c)
		require.NoError(t, err)
	}

	return decomp.NewIndex(p, 0)
}

// bordered has blocks {c0,x0} and {c1,x1} and master row c2 with master
// variable x2.
func bordered(t *testing.T) *decomp.Partial {
	t.Helper()
	d := decomp.New(exportIndex(t), config.Default())
	d.SetNBlocks(2)
	for b := range 2 {
		d.SetConsToBlock(b, b)
		d.SetVarToBlock(b, b)
	}
	d.SetConsToMaster(2)
	d.SetVarToMaster(2)
	require.NoError(t, d.CheckConsistency())
	return d
}

func TestWriteDec(t *testing.T) {
	d := bordered(t)
	var buf bytes.Buffer
	require.NoError(t, WriteDec(&buf, d))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, `\ decomposition 0 (bordered) detectors: (none)`, lines[0])
	assert.Equal(t, `\ score maxwhite: 0.444444`, lines[1])
	assert.Equal(t, []string{
		"CONSDECOMPOSITION", "1",
		"PRESOLVED", "0",
		"NBLOCKS", "2",
		"BLOCK 1", "c0",
		"BLOCK 2", "c1",
		"MASTERCONSS", "c2", "gone",
		"BLOCKVARS 1", "x0",
		"BLOCKVARS 2", "x1",
		"LINKINGVARS",
		"MASTERVARS", "x2", "z",
	}, lines[2:])
}

func TestWriteDecIncomplete(t *testing.T) {
	d := decomp.New(exportIndex(t), config.Default())
	d.SetNBlocks(2)
	d.SetConsToBlock(0, 0)
	d.SetVarToBlock(0, 0)
	d.SetConsToMaster(2)
	d.SetVarToMaster(2)
	require.False(t, d.IsComplete())
	d.Origin.Presolved = true
	d.AddStep(decomp.Step{Detector: "consclass"})

	var buf bytes.Buffer
	require.NoError(t, WriteDec(&buf, d))
	out := buf.String()
	assert.Contains(t, out, "detectors: consclass\n")
	assert.Contains(t, out, "CONSDECOMPOSITION\n0\nPRESOLVED\n1\n")
	assert.True(t, strings.HasSuffix(out, "MASTERCONSS\nc2\ngone\n"), "no variable sections: %s", out)
}

func TestWriteJSON(t *testing.T) {
	d := bordered(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []*decomp.Partial{d}))

	var recs []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &recs))
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "bordered", r.Type)
	assert.True(t, r.Complete)
	assert.Equal(t, 2, r.NBlocks)
	assert.Equal(t, []string{"c0"}, r.Blocks[0].Conss)
	assert.Equal(t, []string{"x1"}, r.Blocks[1].Vars)
	assert.Equal(t, []string{"c2"}, r.MasterConss)
	assert.Equal(t, []string{"x2"}, r.MasterVars)
	assert.Empty(t, r.OpenConss)
	assert.Len(t, r.Scores, len(decomp.AllScoreTypes()))
	assert.InDelta(t, 4.0/9, r.Scores["maxwhite"], 1e-9)
	require.NotNil(t, r.Aggregation)
	assert.NotEmpty(t, r.Aggregation.Classes)
}

func TestToDOT(t *testing.T) {
	d := bordered(t)
	dot := ToDOT(d, DOTOptions{})
	assert.True(t, strings.HasPrefix(dot, "graph G {"))
	assert.Contains(t, dot, `"block1" [label="block 1\n1 conss, 1 vars"];`)
	assert.Contains(t, dot, `"master" -- "block1" [label="1"];`)
	assert.Contains(t, dot, `"master" -- "block2" [label="1"];`)
	assert.NotContains(t, dot, "linking\"]")
	assert.NotContains(t, dot, `"open"`)

	detailed := ToDOT(d, DOTOptions{Detailed: true})
	assert.Contains(t, detailed, `master\n1 conss, 1 vars, 0 linking\nc2`)
}

func TestToDOTLinkingAndStairs(t *testing.T) {
	p := problem.New("stairs")
	for _, n := range []string{"x0", "x1", "s"} {
		_, err := p.AddVar(problem.Variable{Name: n, Ub: 1, Type: problem.Binary})
		require.NoError(t, err)
	}
	for i, vars := range [][]int{{0, 2}, {1, 2}} {
		terms := make([]problem.Term, len(vars))
		for k, v := range vars {
			terms[k] = problem.Term{Var: v, Coef: 1}
		}
		_, err := p.AddCons(problem.Constraint{Name: []string{"c0", "c1"}[i], Lhs: math.Inf(-1), Rhs: 1, Terms: terms})
		require.NoError(t, err)
	}
	d := decomp.New(decomp.NewIndex(p, 0), config.Default())
	d.SetNBlocks(2)
	for b := range 2 {
		d.SetConsToBlock(b, b)
		d.SetVarToBlock(b, b)
	}
	d.SetVarToLinking(2)
	assert.Contains(t, ToDOT(d, DOTOptions{}), `"block1" -- "block2" [label="1 linking"];`)

	d.SetVarToStairlinking(2, 0)
	assert.Contains(t, ToDOT(d, DOTOptions{}), `"block1" -- "block2" [label="1 stair", style=dashed];`)
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(bordered(t), DOTOptions{}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), `viewBox="0 0 `)

	_, err = RenderSVG(context.Background(), "graph { invalid")
	assert.Error(t, err)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="5pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`, out)
	assert.Equal(t, "<p/>", string(normalizeViewBox([]byte("<p/>"))))
}
