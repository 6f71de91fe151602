package detectors

import (
	"context"

	"github.com/matzehuels/blocktower/pkg/pool"
)

// Stairlinking reorders the blocks of a finished decomposition so linking
// variables shared by two consecutive blocks become stairlinking.
type Stairlinking struct{}

func (Stairlinking) Name() string { return "stairlinking" }

func (Stairlinking) Postprocess(_ context.Context, in *pool.Input) pool.Output {
	d := in.Partial
	if !d.IsComplete() || d.NLinkingVars() == 0 {
		return pool.NotFound()
	}
	if !d.CalcStairlinkingVars(in.Config.StairlinkingHeuristic) {
		return pool.NotFound()
	}
	return pool.Success(d)
}
