package detectors

import (
	"context"

	"github.com/matzehuels/blocktower/pkg/pool"
)

// SetPartMaster moves every open set partitioning, packing or covering
// constraint to the master and leaves the rest open for later rounds. It
// finds nothing when that would empty the open constraints.
type SetPartMaster struct{}

func (SetPartMaster) Name() string { return "setpartmaster" }

func (SetPartMaster) Propagate(_ context.Context, in *pool.Input) pool.Output {
	d := in.Partial
	open := d.OpenConss()
	var setppc []int
	for _, c := range open {
		if in.Index.ConsType(c).IsSetppc() {
			setppc = append(setppc, c)
		}
	}
	if len(setppc) == 0 || len(setppc) == len(open) {
		return pool.NotFound()
	}
	for _, c := range setppc {
		d.BookAsMasterCons(c)
	}
	d.FlushBooked()
	return pool.Success(d)
}
