package detectors

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// All returns every built-in detector.
func All() []pool.Detector {
	return []pool.Detector{
		Connected{},
		Greedy{},
		ConsClass{},
		VarClass{},
		SetPartMaster{},
		Stairlinking{},
	}
}

// ByName looks a built-in detector up by name.
func ByName(name string) (pool.Detector, bool) {
	for _, d := range All() {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

func logger(in *pool.Input) *log.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return log.Default()
}

// classSubsets enumerates the class selections a class-based detector
// tries. Classes with role forced are always selected, classes with role
// never are never selected, and every subset of the remaining classes is
// added. Empty selections and selections of every class are skipped.
func classSubsets(c *classify.Classifier, forced, never classify.Role) [][]bool {
	n := c.NClasses()
	base := make([]bool, n)
	var free []int
	for k, r := range c.Roles {
		switch r {
		case forced:
			base[k] = true
		case never:
		default:
			free = append(free, k)
		}
	}

	var out [][]bool
	for mask := 0; mask < 1<<len(free); mask++ {
		sel := append([]bool(nil), base...)
		count := 0
		for i, k := range free {
			if mask&(1<<i) != 0 {
				sel[k] = true
			}
		}
		for _, s := range sel {
			if s {
				count++
			}
		}
		if count == 0 || count == n {
			continue
		}
		out = append(out, sel)
	}
	return out
}
