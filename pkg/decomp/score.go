package decomp

import (
	"strings"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/errors"
)

// ScoreType selects a quality measure. Higher is better for every type.
type ScoreType int

const (
	ScoreMaxWhite ScoreType = iota
	ScoreBorderArea
	ScoreClassic
	ScoreMaxForeseeingWhite
	ScoreMaxForeseeingWhiteAgg
	ScoreSetPartForeseeingWhite
	ScoreSetPartForeseeingWhiteAgg
	ScoreBenders
	nScoreTypes
)

const scoreUnknown = -1.0

// String returns the configuration name of t.
func (t ScoreType) String() string {
	if t >= 0 && t < nScoreTypes {
		return config.ScoreTypes[t]
	}
	return "unknown"
}

// ParseScoreType maps a configuration name to a ScoreType.
func ParseScoreType(name string) (ScoreType, error) {
	for i, n := range config.ScoreTypes {
		if strings.EqualFold(n, name) {
			return ScoreType(i), nil
		}
	}
	return ScoreMaxWhite, errors.New(errors.ErrCodeInvalidScore, "unknown score type %q", name)
}

// AllScoreTypes returns every score type in declaration order.
func AllScoreTypes() []ScoreType {
	out := make([]ScoreType, nScoreTypes)
	for i := range out {
		out[i] = ScoreType(i)
	}
	return out
}

// Score returns the score of type t, computing and caching it on first use.
// Incomplete decompositions score their max-white upper bound under every
// type. A master constraint of a forbidden type forces 0.
func (p *Partial) Score(t ScoreType) float64 {
	if p.scores[t] != scoreUnknown {
		return p.scores[t]
	}
	var s float64
	switch {
	case p.hasForbiddenMaster():
		s = 0
	case !p.IsComplete():
		s = p.maxWhite()
	default:
		switch t {
		case ScoreMaxWhite:
			s = p.maxWhite()
		case ScoreBorderArea:
			s = p.borderArea()
		case ScoreClassic:
			s = p.classic()
		case ScoreMaxForeseeingWhite:
			s = p.maxForeseeingWhite()
		case ScoreMaxForeseeingWhiteAgg:
			s = p.maxForeseeingWhiteAgg()
		case ScoreSetPartForeseeingWhite:
			s = p.maxForeseeingWhite() + p.setPartBonus()
		case ScoreSetPartForeseeingWhiteAgg:
			s = p.maxForeseeingWhiteAgg() + p.setPartBonus()
		case ScoreBenders:
			s = p.benders()
		}
	}
	p.scores[t] = s
	return s
}

// ScoreByName is Score with a configuration name.
func (p *Partial) ScoreByName(name string) (float64, error) {
	t, err := ParseScoreType(name)
	if err != nil {
		return 0, err
	}
	return p.Score(t), nil
}

func (p *Partial) hasForbiddenMaster() bool {
	for _, c := range p.masterConss {
		if p.sh.forbidden[p.sh.idx.ConsType(c)] {
			return true
		}
	}
	return false
}

// =============================================================================
// Area Scores
// =============================================================================

// maxWhite is 1 - black/total where black covers master rows, block rows
// times own columns and linking or stairlinking columns times all rows,
// without counting master-row/linking-column cells twice. Open items add no
// black area, which makes the value an upper bound for incomplete
// decompositions.
func (p *Partial) maxWhite() float64 {
	nc, nv := float64(p.NConss()), float64(p.NVars())
	if nc == 0 || nv == 0 {
		return 0
	}
	nmc := float64(len(p.masterConss))
	nlink := float64(len(p.linkingVars) + p.NTotalStairlinkingVars())
	black := nmc*nv + nlink*nc - nmc*nlink
	for b := range p.nBlocks {
		black += float64(len(p.conssForBlocks[b])) * float64(len(p.varsForBlocks[b]))
	}
	return 1 - black/(nc*nv)
}

// borderArea is 1 minus the share of the border: master rows plus linking,
// stairlinking and master columns.
func (p *Partial) borderArea() float64 {
	nc, nv := float64(p.NConss()), float64(p.NVars())
	if nc == 0 || nv == 0 {
		return 0
	}
	nmc := float64(len(p.masterConss))
	ncols := float64(len(p.linkingVars) + len(p.masterVars) + p.NTotalStairlinkingVars())
	return 1 - (nmc*nv+nc*ncols-nmc*ncols)/(nc*nv)
}

// classic combines border share, evenness of linking variables over blocks
// and the sparsest block density, scaled by the decomposition shape.
func (p *Partial) classic() float64 {
	if p.nBlocks == 0 {
		return 0
	}
	w := p.sh.cfg.Score.Weights
	total := w.Border*p.borderArea() + w.Linking*p.linkingEvenness() + w.Density*p.worstBlockDensity()

	switch p.DecType() {
	case DecStaircase:
		total *= 0.95
	case DecBordered:
		total *= 0.9
	case DecArrowhead:
		total *= 0.8
	}
	if p.nBlocks == 1 {
		total *= p.sh.cfg.Score.SingleBlockFactor
	}
	return total
}

// linkingHits counts, per block, the linking and stairlinking variables
// occurring in its constraints, and per such variable the number of blocks
// it occurs in.
func (p *Partial) linkingHits() (perBlock []int, perVar map[int]int) {
	perBlock = make([]int, p.nBlocks)
	perVar = make(map[int]int)
	count := func(v int) {
		blocks, _ := p.varBlocks(v)
		perVar[v] = len(blocks)
		for _, b := range blocks {
			perBlock[b]++
		}
	}
	for _, v := range p.linkingVars {
		count(v)
	}
	for b := range p.nBlocks {
		for _, v := range p.stairVars[b] {
			count(v)
		}
	}
	return perBlock, perVar
}

// linkingEvenness is min/max of per-block linking counts, 1 without
// linking variables.
func (p *Partial) linkingEvenness() float64 {
	perBlock, _ := p.linkingHits()
	lo, hi := -1, 0
	for _, n := range perBlock {
		if lo < 0 || n < lo {
			lo = n
		}
		hi = max(hi, n)
	}
	if hi == 0 {
		return 1
	}
	return float64(lo) / float64(hi)
}

// worstBlockDensity is the smallest nonzero density of a block restricted
// to its own variables.
func (p *Partial) worstBlockDensity() float64 {
	idx := p.sh.idx
	worst := 1.0
	for b := range p.nBlocks {
		nc, nv := len(p.conssForBlocks[b]), len(p.varsForBlocks[b])
		if nc == 0 || nv == 0 {
			return 0
		}
		nnz := 0
		for _, c := range p.conssForBlocks[b] {
			for _, v := range idx.VarsForCons(c) {
				if p.IsVarBlockVarOfBlock(v, b) {
					nnz++
				}
			}
		}
		worst = min(worst, float64(nnz)/float64(nc*nv))
	}
	return worst
}

// maxForeseeingWhite projects each linking or stairlinking variable into a
// copy per block it touches and scores the white area of the enlarged
// matrix.
func (p *Partial) maxForeseeingWhite() float64 {
	return p.foreseeingWhite(nil)
}

// maxForeseeingWhiteAgg is maxForeseeingWhite where each class of identical
// blocks contributes the black area of its representative only. Without
// aggregation information it equals maxForeseeingWhite.
func (p *Partial) maxForeseeingWhiteAgg() float64 {
	agg := p.Aggregation()
	if !agg.Available {
		return p.maxForeseeingWhite()
	}
	reps := make([]int, 0, len(agg.Classes))
	for _, cl := range agg.Classes {
		reps = append(reps, cl.Representative)
	}
	return p.foreseeingWhite(reps)
}

// foreseeingWhite computes the foreseeing white share. Block black area is
// summed over blocks, or over only the given blocks when non-nil.
func (p *Partial) foreseeingWhite(blocks []int) float64 {
	perBlock, perVar := p.linkingHits()
	sumBlocksHitting, sumLinkingHitting := 0, 0
	for _, n := range perVar {
		sumBlocksHitting += n
	}
	for _, n := range perBlock {
		sumLinkingHitting += n
	}

	height := float64(p.NConss() + sumBlocksHitting)
	width := float64(p.NVars() + sumLinkingHitting)
	if height == 0 || width == 0 {
		return 0
	}
	if blocks == nil {
		blocks = make([]int, p.nBlocks)
		for b := range blocks {
			blocks[b] = b
		}
	}
	master := float64(len(p.masterConss)+sumBlocksHitting) * width
	block := 0.0
	for _, b := range blocks {
		block += float64(len(p.conssForBlocks[b])) * float64(len(p.varsForBlocks[b])+perBlock[b])
	}
	return 1 - (master+block)/(height*width)
}

// setPartBonus rewards decompositions with at least two blocks whose master
// consists only of set partitioning, packing, covering or cardinality rows.
func (p *Partial) setPartBonus() float64 {
	if p.nBlocks < 2 || len(p.masterConss) == 0 || !p.sh.idx.AllSetppcOrCardinality(p.masterConss) {
		return 0
	}
	return p.sh.cfg.Score.SetPartBonus
}

// benders counts the white area between distinct blocks that survives a
// Benders split. A block row is clean when it has no master, linking or
// stairlinking variable; a block column is clean when it occurs in no
// master constraint.
func (p *Partial) benders() float64 {
	nc, nv := float64(p.NConss()), float64(p.NVars())
	if nc == 0 || nv == 0 || p.nBlocks < 2 {
		return 0
	}
	idx := p.sh.idx
	rows := make([]int, p.nBlocks)
	cols := make([]int, p.nBlocks)
	for b := range p.nBlocks {
		for _, c := range p.conssForBlocks[b] {
			clean := true
			for _, v := range idx.VarsForCons(c) {
				if !p.IsVarBlockVar(v) {
					clean = false
					break
				}
			}
			if clean {
				rows[b]++
			}
		}
		for _, v := range p.varsForBlocks[b] {
			clean := true
			for _, c := range idx.ConssForVar(v) {
				if p.IsConsMaster(c) {
					clean = false
					break
				}
			}
			if clean {
				cols[b]++
			}
		}
	}
	totalCols := 0
	for _, n := range cols {
		totalCols += n
	}
	white := 0.0
	for b := range p.nBlocks {
		white += float64(rows[b]) * float64(totalCols-cols[b])
	}
	return white / (nc * nv)
}
