package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/detectors"
	"github.com/matzehuels/blocktower/pkg/pool"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// NewPool creates a pool for prob with every built-in detector registered.
func NewPool(prob *problem.Problem, cfg config.Config, logger *log.Logger) (*pool.Pool, error) {
	return pool.New(prob, cfg,
		pool.WithLogger(logger),
		pool.WithDetectors(detectors.All()...))
}

// Top returns at most n finished decompositions of p, best first.
func Top(p *pool.Pool, n int) []*decomp.Partial {
	ranked := p.Ranked()
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
