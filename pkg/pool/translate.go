package pool

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/errors"
)

// Missing marks an index without counterpart.
const Missing = -1

// IndexMap maps constraint and variable indices of one index to another.
type IndexMap struct {
	Conss []int
	Vars  []int
}

// NMissing counts unmapped constraints and variables.
func (m IndexMap) NMissing() (conss, vars int) {
	for _, t := range m.Conss {
		if t == Missing {
			conss++
		}
	}
	for _, t := range m.Vars {
		if t == Missing {
			vars++
		}
	}
	return conss, vars
}

// TranslateData computes the correspondence between two indices in both
// directions. Items are matched by reference first and by name otherwise;
// every target is used at most once.
func TranslateData(src, dst *decomp.Index) (toDst, toSrc IndexMap) {
	toDst.Conss, toSrc.Conss = matchItems(src.NConss(), dst.NConss(),
		src.ConsRef, src.ConsName, dst.ConsByRef, dst.ConsByName)
	toDst.Vars, toSrc.Vars = matchItems(src.NVars(), dst.NVars(),
		src.VarRef, src.VarName, dst.VarByRef, dst.VarByName)
	return toDst, toSrc
}

func matchItems(nSrc, nDst int,
	ref, name func(int) string,
	byRef, byName func(string) (int, bool)) (fwd, back []int) {
	fwd = make([]int, nSrc)
	back = make([]int, nDst)
	for i := range back {
		back[i] = Missing
	}
	used := roaring.New()
	for i := range nSrc {
		fwd[i] = Missing
		t, ok := byRef(ref(i))
		if !ok || used.Contains(uint32(t)) {
			t, ok = byName(name(i))
		}
		if !ok || !used.CheckedAdd(uint32(t)) {
			continue
		}
		fwd[i] = t
		back[t] = i
	}
	return fwd, back
}

// Translate re-expresses decompositions of src in this pool's index.
// Every mapped item is booked into the same category, then dependent items
// are assigned and empty blocks removed. A translation is dropped when it
// is inconsistent or its completeness differs from the source. Surviving
// translations are registered as seeds for the next search and returned.
func (p *Pool) Translate(src *Pool, decs []*decomp.Partial) []*decomp.Partial {
	toDst, _ := TranslateData(src.idx, p.idx)
	var out []*decomp.Partial
	for _, d := range decs {
		t, err := p.translateOne(d, toDst)
		if err != nil {
			p.logger.Debug("translation dropped", "dec", d.ID(), "err", err)
			continue
		}
		if p.addSeed(t) {
			out = append(out, t)
		}
	}
	p.logger.Debug("translated decompositions", "from", src.id, "given", len(decs), "kept", len(out))
	return out
}

func (p *Pool) translateOne(d *decomp.Partial, m IndexMap) (*decomp.Partial, error) {
	t := p.NewPartial()
	t.SetNBlocks(d.NBlocks())
	mapped := func(xs []int, to []int, book func(int)) {
		for _, x := range xs {
			if y := to[x]; y != Missing {
				book(y)
			}
		}
	}
	for b := range d.NBlocks() {
		mapped(d.ConssForBlock(b), m.Conss, func(c int) { t.BookAsBlockCons(c, b) })
		mapped(d.VarsForBlock(b), m.Vars, func(v int) { t.BookAsBlockVar(v, b) })
		mapped(d.StairlinkingVars(b), m.Vars, func(v int) { t.BookAsStairlinkingVar(v, b) })
	}
	mapped(d.MasterConss(), m.Conss, t.BookAsMasterCons)
	mapped(d.MasterVars(), m.Vars, t.BookAsMasterVar)
	mapped(d.LinkingVars(), m.Vars, t.BookAsLinkingVar)
	t.FlushBooked()
	t.AssignAllDependent()
	t.DeleteEmptyBlocks(false)

	if err := t.CheckConsistency(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTranslationFailed, err, "dec %d", d.ID())
	}
	if t.IsComplete() != d.IsComplete() {
		return nil, errors.New(errors.ErrCodeTranslationFailed, "dec %d: completeness changed", d.ID())
	}
	for _, s := range d.Steps() {
		t.AddStep(s)
	}
	t.Origin = d.Origin
	t.Origin.Translated = true
	t.Origin.Presolved = p.prob.Presolved
	return t, nil
}
