package decomp

import (
	"fmt"
	"strings"
	"time"
)

// Step records what one detector changed on the way to a decomposition.
// Percentages are shares of all constraints or variables.
type Step struct {
	Detector   string
	Duration   time.Duration
	NNewBlocks int

	PctConssToBlock  float64
	PctConssToMaster float64
	PctConssFromOpen float64
	PctVarsToBlock   float64
	PctVarsToMaster  float64
	PctVarsFromOpen  float64
}

// NewStep derives the statistics of a detector call that turned before into
// after.
func NewStep(detector string, before, after *Partial, d time.Duration) Step {
	s := Step{Detector: detector, Duration: d, NNewBlocks: after.NNewBlocksSince(before)}
	if nc := float64(after.NConss()); nc > 0 {
		s.PctConssToBlock = float64(after.nBlockConss()-before.nBlockConss()) / nc
		s.PctConssToMaster = float64(len(after.masterConss)-len(before.masterConss)) / nc
		s.PctConssFromOpen = float64(len(before.openConss)-len(after.openConss)) / nc
	}
	if nv := float64(after.NVars()); nv > 0 {
		s.PctVarsToBlock = float64(after.nBlockVars()-before.nBlockVars()) / nv
		s.PctVarsToMaster = float64(after.nBorderVars()-before.nBorderVars()) / nv
		s.PctVarsFromOpen = float64(len(before.openVars)-len(after.openVars)) / nv
	}
	return s
}

func (p *Partial) nBlockConss() int {
	n := 0
	for _, cs := range p.conssForBlocks {
		n += len(cs)
	}
	return n
}

func (p *Partial) nBlockVars() int {
	n := 0
	for b := range p.nBlocks {
		n += len(p.varsForBlocks[b]) + len(p.stairVars[b])
	}
	return n
}

func (p *Partial) nBorderVars() int { return len(p.masterVars) + len(p.linkingVars) }

// DetectorChainString joins the detector chain with '|'.
func (p *Partial) DetectorChainString() string {
	if len(p.detectors) == 0 {
		return "(none)"
	}
	return strings.Join(p.detectors, "|")
}

// String renders a one-line summary.
func (p *Partial) String() string {
	state := "partial"
	if p.IsComplete() {
		state = "complete"
	}
	return fmt.Sprintf("dec %d [%s] blocks=%d masterconss=%d linking=%d stair=%d mastervars=%d open=%d/%d chain=%s",
		p.id, state, p.nBlocks, len(p.masterConss), len(p.linkingVars), p.NTotalStairlinkingVars(),
		len(p.masterVars), len(p.openConss), len(p.openVars), p.DetectorChainString())
}

// Describe renders a multi-line description with names, one block per line.
func (p *Partial) Describe() string {
	idx := p.sh.idx
	names := func(items []int, name func(int) string) string {
		out := make([]string, len(items))
		for i, x := range items {
			out[i] = name(x)
		}
		return strings.Join(out, " ")
	}
	var sb strings.Builder
	fmt.Fprintln(&sb, p.String())
	for b := range p.nBlocks {
		fmt.Fprintf(&sb, "  block %d: conss=[%s] vars=[%s]", b,
			names(p.conssForBlocks[b], idx.ConsName), names(p.varsForBlocks[b], idx.VarName))
		if len(p.stairVars[b]) > 0 {
			fmt.Fprintf(&sb, " stair=[%s]", names(p.stairVars[b], idx.VarName))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  master: conss=[%s] vars=[%s] linking=[%s]\n",
		names(p.masterConss, idx.ConsName), names(p.masterVars, idx.VarName), names(p.linkingVars, idx.VarName))
	if !p.IsComplete() {
		fmt.Fprintf(&sb, "  open: conss=[%s] vars=[%s]\n",
			names(p.openConss, idx.ConsName), names(p.openVars, idx.VarName))
	}
	return sb.String()
}
