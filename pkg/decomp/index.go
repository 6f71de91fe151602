package decomp

import (
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/blocktower/pkg/problem"
)

// Index is the dense incidence structure over the structurally relevant part
// of a problem. Removed constraints and variables fixed to zero are left out;
// their problem positions are kept in ExcludedConss and ExcludedVars.
//
// Index is immutable after [NewIndex] and safe for concurrent reads.
type Index struct {
	prob *problem.Problem

	consPos []int // dense cons -> problem position
	varPos  []int // dense var -> problem position
	consOf  map[int]int
	varOf   map[int]int

	varsForCons  [][]int
	valsForCons  [][]float64
	conssForVar  [][]int
	conssForCons [][]int
	consTypes    []problem.ConsType

	consByName map[string]int
	varByName  map[string]int
	consByRef  map[string]int
	varByRef   map[string]int

	nnz int

	// ExcludedConss and ExcludedVars hold problem positions that are not
	// indexed.
	ExcludedConss *roaring.Bitmap
	ExcludedVars  *roaring.Bitmap
}

// NewIndex builds the incidence index of p. Constraint adjacency is
// materialised only when NConss+NVars <= adjacencyThreshold.
func NewIndex(p *problem.Problem, adjacencyThreshold int) *Index {
	idx := &Index{
		prob:          p,
		consOf:        make(map[int]int, len(p.Conss)),
		varOf:         make(map[int]int, len(p.Vars)),
		consByName:    make(map[string]int, len(p.Conss)),
		varByName:     make(map[string]int, len(p.Vars)),
		consByRef:     make(map[string]int, len(p.Conss)),
		varByRef:      make(map[string]int, len(p.Vars)),
		ExcludedConss: roaring.New(),
		ExcludedVars:  roaring.New(),
	}

	for i, v := range p.Vars {
		if v.FixedToZero() {
			idx.ExcludedVars.Add(uint32(i))
			continue
		}
		d := len(idx.varPos)
		idx.varPos = append(idx.varPos, i)
		idx.varOf[i] = d
		idx.varByName[v.Name] = d
		idx.varByRef[refOr(v.Ref, v.Name)] = d
	}
	idx.conssForVar = make([][]int, len(idx.varPos))

	for i, c := range p.Conss {
		if c.Removed {
			idx.ExcludedConss.Add(uint32(i))
			continue
		}
		d := len(idx.consPos)
		idx.consPos = append(idx.consPos, i)
		idx.consOf[i] = d
		idx.consByName[c.Name] = d
		idx.consByRef[refOr(c.Ref, c.Name)] = d

		type entry struct {
			v   int
			val float64
		}
		entries := make([]entry, 0, len(c.Terms))
		for _, t := range c.Terms {
			if dv, ok := idx.varOf[t.Var]; ok && t.Coef != 0 {
				entries = append(entries, entry{dv, t.Coef})
			}
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].v < entries[b].v })
		vars := make([]int, len(entries))
		vals := make([]float64, len(entries))
		for k, e := range entries {
			vars[k], vals[k] = e.v, e.val
			idx.conssForVar[e.v] = append(idx.conssForVar[e.v], d)
		}
		idx.varsForCons = append(idx.varsForCons, vars)
		idx.valsForCons = append(idx.valsForCons, vals)
		idx.consTypes = append(idx.consTypes, p.ConsType(i))
		idx.nnz += len(vars)
	}

	if idx.NConss()+idx.NVars() <= adjacencyThreshold {
		idx.buildConssAdjacency()
	}
	return idx
}

func refOr(ref, name string) string {
	if ref == "" {
		return name
	}
	return ref
}

func (idx *Index) buildConssAdjacency() {
	idx.conssForCons = make([][]int, idx.NConss())
	seen := roaring.New()
	for c := range idx.NConss() {
		seen.Clear()
		for _, v := range idx.varsForCons[c] {
			for _, o := range idx.conssForVar[v] {
				if o != c {
					seen.Add(uint32(o))
				}
			}
		}
		adj := make([]int, 0, seen.GetCardinality())
		it := seen.Iterator()
		for it.HasNext() {
			adj = append(adj, int(it.Next()))
		}
		idx.conssForCons[c] = adj
	}
}

// Problem returns the indexed problem.
func (idx *Index) Problem() *problem.Problem { return idx.prob }

// NConss returns the number of indexed constraints.
func (idx *Index) NConss() int { return len(idx.consPos) }

// NVars returns the number of indexed variables.
func (idx *Index) NVars() int { return len(idx.varPos) }

// NNonzeros returns the number of indexed nonzero coefficients.
func (idx *Index) NNonzeros() int { return idx.nnz }

// VarsForCons returns the ascending variables of constraint c. The slice must
// not be modified.
func (idx *Index) VarsForCons(c int) []int { return idx.varsForCons[c] }

// ValsForCons returns the coefficients aligned with VarsForCons(c).
func (idx *Index) ValsForCons(c int) []float64 { return idx.valsForCons[c] }

// ConssForVar returns the ascending constraints containing variable v.
func (idx *Index) ConssForVar(v int) []int { return idx.conssForVar[v] }

// HasConssAdjacency reports whether constraint adjacency was materialised.
func (idx *Index) HasConssAdjacency() bool { return idx.conssForCons != nil }

// ConssForCons returns the constraints sharing a variable with c. It returns
// nil when adjacency was not built.
func (idx *Index) ConssForCons(c int) []int {
	if idx.conssForCons == nil {
		return nil
	}
	return idx.conssForCons[c]
}

// Coef returns the coefficient of v in c, or 0.
func (idx *Index) Coef(c, v int) float64 {
	vars := idx.varsForCons[c]
	if k, ok := slices.BinarySearch(vars, v); ok {
		return idx.valsForCons[c][k]
	}
	return 0
}

// ConsType returns the algebraic type of constraint c.
func (idx *Index) ConsType(c int) problem.ConsType { return idx.consTypes[c] }

// Cons returns the problem constraint behind dense index c.
func (idx *Index) Cons(c int) problem.Constraint { return idx.prob.Conss[idx.consPos[c]] }

// Var returns the problem variable behind dense index v.
func (idx *Index) Var(v int) problem.Variable { return idx.prob.Vars[idx.varPos[v]] }

// ConsName returns the name of constraint c.
func (idx *Index) ConsName(c int) string { return idx.Cons(c).Name }

// VarName returns the name of variable v.
func (idx *Index) VarName(v int) string { return idx.Var(v).Name }

// AllSetppcOrCardinality reports whether every listed constraint is a set
// partitioning, packing, covering or cardinality row.
func (idx *Index) AllSetppcOrCardinality(conss []int) bool {
	for _, c := range conss {
		t := idx.ConsType(c)
		if !t.IsSetppc() && !t.IsCardinality() {
			return false
		}
	}
	return true
}

// ConsByName looks a constraint up by name.
func (idx *Index) ConsByName(name string) (int, bool) {
	c, ok := idx.consByName[name]
	return c, ok
}

// VarByName looks a variable up by name.
func (idx *Index) VarByName(name string) (int, bool) {
	v, ok := idx.varByName[name]
	return v, ok
}

// ConsByRef looks a constraint up by its identity reference.
func (idx *Index) ConsByRef(ref string) (int, bool) {
	c, ok := idx.consByRef[ref]
	return c, ok
}

// VarByRef looks a variable up by its identity reference.
func (idx *Index) VarByRef(ref string) (int, bool) {
	v, ok := idx.varByRef[ref]
	return v, ok
}

// ConsRef returns the identity reference of constraint c.
func (idx *Index) ConsRef(c int) string {
	cons := idx.Cons(c)
	return refOr(cons.Ref, cons.Name)
}

// VarRef returns the identity reference of variable v.
func (idx *Index) VarRef(v int) string {
	vr := idx.Var(v)
	return refOr(vr.Ref, vr.Name)
}
