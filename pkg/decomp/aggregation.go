package decomp

import (
	"cmp"
	"slices"

	"github.com/matzehuels/blocktower/pkg/config"
)

// =============================================================================
// Identity Checkers
// =============================================================================

// IdentityChecker decides whether two blocks are structurally identical. It
// returns, for every variable of block a in ascending order, the matching
// variable of block b.
type IdentityChecker interface {
	Name() string
	Identical(p *Partial, a, b int) ([]int, bool)
}

// SequentialChecker compares blocks position by position in ascending index
// order. It only recognises blocks whose items were created in the same
// order.
type SequentialChecker struct{}

// Name implements IdentityChecker.
func (SequentialChecker) Name() string { return config.CheckerSequential }

// Identical implements IdentityChecker.
func (SequentialChecker) Identical(p *Partial, a, b int) ([]int, bool) {
	return p.identicalInOrder(
		p.conssForBlocks[a], p.varsForBlocks[a],
		p.conssForBlocks[b], p.varsForBlocks[b],
		p.varsForBlocks[a],
	)
}

// SignatureChecker first sorts the constraints and variables of each block
// by a structural signature (bounds, type, objective and coefficient
// multisets) and then compares position by position, so item order inside
// the blocks does not matter.
type SignatureChecker struct{}

// Name implements IdentityChecker.
func (SignatureChecker) Name() string { return config.CheckerSignature }

// Identical implements IdentityChecker.
func (SignatureChecker) Identical(p *Partial, a, b int) ([]int, bool) {
	ca, va := p.signatureOrder(a)
	cb, vb := p.signatureOrder(b)
	return p.identicalInOrder(ca, va, cb, vb, p.varsForBlocks[a])
}

// ChooseIdentityChecker returns the checker named in cfg. "auto" selects the
// signature checker.
func ChooseIdentityChecker(cfg config.Aggregation) IdentityChecker {
	if cfg.Checker == config.CheckerSequential {
		return SequentialChecker{}
	}
	return SignatureChecker{}
}

// identicalInOrder compares two blocks given aligned constraint and variable
// orders. The returned map is indexed by the position of a variable in
// ascA, the ascending variable list of the first block.
func (p *Partial) identicalInOrder(consA, varsA, consB, varsB, ascA []int) ([]int, bool) {
	idx := p.sh.idx
	if len(consA) != len(consB) || len(varsA) != len(varsB) {
		return nil, false
	}
	if blockNonzeros(idx, consA) != blockNonzeros(idx, consB) {
		return nil, false
	}

	toB := make(map[int]int, len(varsA))
	for k, va := range varsA {
		vb := varsB[k]
		x, y := idx.Var(va), idx.Var(vb)
		if x.Lb != y.Lb || x.Ub != y.Ub || x.Obj != y.Obj || x.Type != y.Type {
			return nil, false
		}
		if !p.sameMasterCoupling(va, vb) {
			return nil, false
		}
		toB[va] = vb
	}

	for k, ca := range consA {
		cb := consB[k]
		x, y := idx.Cons(ca), idx.Cons(cb)
		if x.Lhs != y.Lhs || x.Rhs != y.Rhs || len(idx.VarsForCons(ca)) != len(idx.VarsForCons(cb)) {
			return nil, false
		}
		vals := idx.ValsForCons(ca)
		for i, v := range idx.VarsForCons(ca) {
			target := v
			if mapped, ok := toB[v]; ok {
				target = mapped
			}
			if idx.Coef(cb, target) != vals[i] {
				return nil, false
			}
		}
	}

	out := make([]int, len(ascA))
	for k, v := range ascA {
		out[k] = toB[v]
	}
	return out, true
}

// sameMasterCoupling reports whether va and vb have equal coefficients in
// every master constraint.
func (p *Partial) sameMasterCoupling(va, vb int) bool {
	idx := p.sh.idx
	masterOf := func(v int) []int {
		var out []int
		for _, c := range idx.ConssForVar(v) {
			if p.IsConsMaster(c) {
				out = append(out, c)
			}
		}
		return out
	}
	ma, mb := masterOf(va), masterOf(vb)
	if !slices.Equal(ma, mb) {
		return false
	}
	for _, c := range ma {
		if idx.Coef(c, va) != idx.Coef(c, vb) {
			return false
		}
	}
	return true
}

func blockNonzeros(idx *Index, conss []int) int {
	n := 0
	for _, c := range conss {
		n += len(idx.VarsForCons(c))
	}
	return n
}

// signatureOrder sorts the constraints and variables of block b by their
// structural signatures, keeping index order among equal signatures.
func (p *Partial) signatureOrder(b int) (conss, vars []int) {
	idx := p.sh.idx
	conss = slices.Clone(p.conssForBlocks[b])
	vars = slices.Clone(p.varsForBlocks[b])

	consSig := make(map[int][]float64, len(conss))
	for _, c := range conss {
		cons := idx.Cons(c)
		coefs := slices.Clone(idx.ValsForCons(c))
		slices.Sort(coefs)
		consSig[c] = append([]float64{cons.Lhs, cons.Rhs, float64(len(coefs))}, coefs...)
	}
	varSig := make(map[int][]float64, len(vars))
	for _, v := range vars {
		x := idx.Var(v)
		var inBlock, inMaster []float64
		for _, c := range idx.ConssForVar(v) {
			switch {
			case p.consBlock[c] == b:
				inBlock = append(inBlock, idx.Coef(c, v))
			case p.IsConsMaster(c):
				inMaster = append(inMaster, idx.Coef(c, v))
			}
		}
		slices.Sort(inBlock)
		slices.Sort(inMaster)
		sig := []float64{float64(x.Type), x.Lb, x.Ub, x.Obj, float64(len(inBlock)), float64(len(inMaster))}
		sig = append(sig, inBlock...)
		varSig[v] = append(sig, inMaster...)
	}

	slices.SortStableFunc(conss, func(a, b int) int { return slices.Compare(consSig[a], consSig[b]) })
	slices.SortStableFunc(vars, func(a, b int) int { return slices.Compare(varSig[a], varSig[b]) })
	return conss, vars
}

// =============================================================================
// Aggregation Information
// =============================================================================

// AggClass is a set of identical blocks. VarMaps[i][k] is the variable of
// Members[i] that corresponds to VarsForBlock(Representative)[k].
type AggClass struct {
	Representative int
	Members        []int
	VarMaps        [][]int
}

// AggregationInfo groups the blocks of a decomposition into equivalence
// classes of identical blocks. When Available is false the size limits
// prevented the comparison and every block forms its own class.
type AggregationInfo struct {
	Available bool
	Checker   string
	Classes   []AggClass
}

// NEquivalenceClasses returns the number of classes.
func (a *AggregationInfo) NEquivalenceClasses() int { return len(a.Classes) }

// ClassOf returns the class index of block b, or -1.
func (a *AggregationInfo) ClassOf(b int) int {
	for i, cl := range a.Classes {
		if slices.Contains(cl.Members, b) {
			return i
		}
	}
	return -1
}

// Aggregation returns the cached aggregation information, computing it with
// the configured checker on first use.
func (p *Partial) Aggregation() *AggregationInfo {
	if p.agg == nil {
		p.agg = p.CalcAggregationInformation(ChooseIdentityChecker(p.sh.cfg.Aggregation))
	}
	return p.agg
}

// CalcAggregationInformation partitions the blocks into classes of
// identical blocks using checker. Blocks touched by stairlinking variables
// never aggregate. Blocks above the configured size limits make the whole
// computation unavailable.
func (p *Partial) CalcAggregationInformation(checker IdentityChecker) *AggregationInfo {
	cfg := p.sh.cfg.Aggregation
	info := &AggregationInfo{Available: cfg.Enabled && p.IsComplete(), Checker: checker.Name()}
	for b := range p.nBlocks {
		if len(p.conssForBlocks[b]) > cfg.LimitConssPerBlock || len(p.varsForBlocks[b]) > cfg.LimitVarsPerBlock {
			info.Available = false
		}
	}

	singleton := func(b int) AggClass {
		return AggClass{Representative: b, Members: []int{b}, VarMaps: [][]int{slices.Clone(p.varsForBlocks[b])}}
	}
	if !info.Available {
		for b := range p.nBlocks {
			info.Classes = append(info.Classes, singleton(b))
		}
		return info
	}

	stairTouched := func(b int) bool {
		return len(p.stairVars[b]) > 0 || (b > 0 && len(p.stairVars[b-1]) > 0)
	}
	for b := range p.nBlocks {
		joined := false
		if !stairTouched(b) && len(p.varsForBlocks[b]) > 0 {
			for i := range info.Classes {
				cl := &info.Classes[i]
				if stairTouched(cl.Representative) {
					continue
				}
				if m, ok := checker.Identical(p, cl.Representative, b); ok {
					cl.Members = append(cl.Members, b)
					cl.VarMaps = append(cl.VarMaps, m)
					joined = true
					break
				}
			}
		}
		if !joined {
			info.Classes = append(info.Classes, singleton(b))
		}
	}
	slices.SortFunc(info.Classes, func(x, y AggClass) int { return cmp.Compare(x.Representative, y.Representative) })
	return info
}
