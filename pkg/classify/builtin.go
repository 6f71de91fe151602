package classify

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
)

// =============================================================================
// Constraint Classifiers
// =============================================================================

// ByConsType groups constraints by algebraic type.
func ByConsType(idx *decomp.Index) *Classifier {
	b := newBuilder(Conss, "constype", idx.NConss())
	for c := range idx.NConss() {
		t := idx.ConsType(c)
		b.assign(c, t.String(), "constraints of type "+t.String(), RoleAny)
	}
	return b.c
}

// ByNNonzeros groups constraints by row length.
func ByNNonzeros(idx *decomp.Index) *Classifier {
	b := newBuilder(Conss, "nnonzeros", idx.NConss())
	for c := range idx.NConss() {
		n := len(idx.VarsForCons(c))
		b.assign(c, "nnz"+strconv.Itoa(n), fmt.Sprintf("constraints with %d nonzeros", n), RoleAny)
	}
	return b.c
}

// ByNamePrefix groups constraints whose names agree after removing digits,
// so cap_1_3 and cap_2_7 share the class cap__.
func ByNamePrefix(idx *decomp.Index) *Classifier {
	b := newBuilder(Conss, "consnamenonumbers", idx.NConss())
	for c := range idx.NConss() {
		key := stripDigits(idx.ConsName(c))
		b.assign(c, key, "constraint names matching "+key, RoleAny)
	}
	return b.c
}

func stripDigits(name string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, name)
	if s == "" {
		return "(digits)"
	}
	return s
}

// ByNameSimilarity connects constraints whose names are within edit
// distance one and makes every connected component a class. It compares
// all pairs and reports false without a result when the index has more
// than limit constraints.
func ByNameSimilarity(idx *decomp.Index, limit int) (*Classifier, bool) {
	n := idx.NConss()
	if n > limit {
		return nil, false
	}
	names := make([]string, n)
	lens := make([]int, n)
	for c := range n {
		names[c] = idx.ConsName(c)
		lens[c] = utf8.RuneCountInString(names[c])
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if lens[i]-lens[j] > 1 || lens[j]-lens[i] > 1 {
				continue
			}
			if levenshtein.ComputeDistance(names[i], names[j]) <= 1 {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	b := newBuilder(Conss, "consnamelevenshtein", n)
	for c := range n {
		root := names[find(c)]
		b.assign(c, "like "+root, "constraint names within edit distance 1 of a chain from "+root, RoleAny)
	}
	return b.c, true
}

// =============================================================================
// Variable Classifiers
// =============================================================================

// ByVarType groups variables by integrality type.
func ByVarType(idx *decomp.Index) *Classifier {
	b := newBuilder(Vars, "vartype", idx.NVars())
	for v := range idx.NVars() {
		t := idx.Var(v).Type
		b.assign(v, t.String(), t.String()+" variables", RoleAny)
	}
	return b.c
}

// ByObjectiveSign groups variables into positive, zero and negative
// objective coefficients. Zero-objective variables are hinted as block
// variables.
func ByObjectiveSign(idx *decomp.Index) *Classifier {
	b := newBuilder(Vars, "objectivesigns", idx.NVars())
	for v := range idx.NVars() {
		switch obj := idx.Var(v).Obj; {
		case obj > 0:
			b.assign(v, "positive", "variables with positive objective", RoleAny)
		case obj < 0:
			b.assign(v, "negative", "variables with negative objective", RoleAny)
		default:
			b.assign(v, "zero", "variables without objective", RoleBlock)
		}
	}
	return b.c
}

// ByObjectiveValue groups variables by exact objective coefficient.
func ByObjectiveValue(idx *decomp.Index) *Classifier {
	b := newBuilder(Vars, "objectivevalues", idx.NVars())
	for v := range idx.NVars() {
		key := strconv.FormatFloat(idx.Var(v).Obj, 'g', -1, 64)
		b.assign(v, "obj"+key, "variables with objective "+key, RoleAny)
	}
	return b.c
}

// =============================================================================
// Builtin Set
// =============================================================================

// Builtin runs every built-in classifier and reduces each to
// cfg.MaxClassesPerClassifier classes. Classifiers with a single class and
// partitions equal to an earlier one are dropped.
func Builtin(idx *decomp.Index, cfg config.Config) (conss, vars []*Classifier) {
	add := func(list []*Classifier, c *Classifier) []*Classifier {
		if c == nil || c.NClasses() < 2 {
			return list
		}
		for _, o := range list {
			if SamePartition(o, c) {
				return list
			}
		}
		return append(list, c.Reduce(cfg.MaxClassesPerClassifier))
	}

	conss = add(conss, ByConsType(idx))
	conss = add(conss, ByNNonzeros(idx))
	conss = add(conss, ByNamePrefix(idx))
	if c, ok := ByNameSimilarity(idx, cfg.NameSimilarityLimit); ok {
		conss = add(conss, c)
	}

	vars = add(vars, ByVarType(idx))
	vars = add(vars, ByObjectiveSign(idx))
	vars = add(vars, ByObjectiveValue(idx))
	return conss, vars
}

// SamePartition reports whether a and b group the same items together,
// regardless of class ids and names.
func SamePartition(a, b *Classifier) bool {
	if a.Kind != b.Kind || len(a.ClassOf) != len(b.ClassOf) || a.NClasses() != b.NClasses() {
		return false
	}
	ab := make(map[int]int, a.NClasses())
	for i, ka := range a.ClassOf {
		kb := b.ClassOf[i]
		if m, ok := ab[ka]; ok {
			if m != kb {
				return false
			}
			continue
		}
		ab[ka] = kb
	}
	return true
}
