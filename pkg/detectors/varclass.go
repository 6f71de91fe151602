package detectors

import (
	"context"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// VarClass declares the open variables of class subsets linking and
// completes the rest by connected components. Linking-role classes are
// always selected, block-role classes never. Master-role variables become
// master variables when none of their constraints sits in a block.
type VarClass struct{}

func (VarClass) Name() string { return "varclass" }

func (VarClass) Propagate(ctx context.Context, in *pool.Input) pool.Output {
	limit := in.Config.MaxClassesForDetection
	var out []*decomp.Partial
	for _, cl := range in.VarClassifiers {
		if cl.NClasses() > limit {
			logger(in).Debug("classifier too large", "detector", "varclass", "classifier", cl.Name, "classes", cl.NClasses())
			continue
		}
		for _, sel := range classSubsets(cl, classify.RoleLinking, classify.RoleBlock) {
			if err := ctx.Err(); err != nil {
				return pool.Failed(err)
			}
			d := in.Partial.Clone()
			for _, v := range d.OpenVars() {
				k := cl.ClassOf[v]
				switch {
				case cl.Roles[k] == classify.RoleMaster && !inBlock(d, v):
					d.BookAsMasterVar(v)
				case sel[k]:
					d.BookAsLinkingVar(v)
				}
			}
			if !d.FlushBooked() || d.NOpenVars() == 0 {
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

func inBlock(d *decomp.Partial, v int) bool {
	for _, c := range d.Index().ConssForVar(v) {
		if d.BlockOfCons(c) >= 0 {
			return true
		}
	}
	return false
}
