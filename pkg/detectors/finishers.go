package detectors

import (
	"context"

	"github.com/matzehuels/blocktower/pkg/pool"
)

// Connected completes a state by connected components of open items. It
// walks the constraint adjacency when the index has one.
type Connected struct{}

func (Connected) Name() string { return "connected" }

func (Connected) Finish(_ context.Context, in *pool.Input) pool.Output {
	d := in.Partial
	if in.Index.HasConssAdjacency() {
		d.CompleteByConnectedConssAdjacency()
	} else {
		d.CompleteByConnected()
	}
	return pool.Success(d)
}

// Greedy completes a state by growing blocks one open constraint at a time.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) Finish(_ context.Context, in *pool.Input) pool.Output {
	in.Partial.CompleteGreedily()
	return pool.Success(in.Partial)
}
