package detectors

import (
	"context"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// ConsClass moves the open constraints of class subsets to the master and
// completes the rest by connected components. Master-role classes are
// always moved, block-role classes never. Classifiers with more than
// MaxClassesForDetection classes are skipped.
type ConsClass struct{}

func (ConsClass) Name() string { return "consclass" }

func (ConsClass) Propagate(ctx context.Context, in *pool.Input) pool.Output {
	limit := in.Config.MaxClassesForDetection
	var out []*decomp.Partial
	for _, cl := range in.ConsClassifiers {
		if cl.NClasses() > limit {
			logger(in).Debug("classifier too large", "detector", "consclass", "classifier", cl.Name, "classes", cl.NClasses())
			continue
		}
		for _, sel := range classSubsets(cl, classify.RoleMaster, classify.RoleBlock) {
			if err := ctx.Err(); err != nil {
				return pool.Failed(err)
			}
			d := in.Partial.Clone()
			for _, c := range d.OpenConss() {
				if sel[cl.ClassOf[c]] {
					d.BookAsMasterCons(c)
				}
			}
			if !d.FlushBooked() || d.NOpenConss() == 0 {
				continue
			}
			d.CompleteByConnected()
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return pool.NotFound()
	}
	return pool.Success(out...)
}
