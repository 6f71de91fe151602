// Package pkg provides the core libraries of blocktower, a detector for
// block-angular structure in sparse mixed-integer problems.
//
// # Overview
//
// A block-angular decomposition partitions the constraints and variables of
// a problem into independent blocks plus a shared border: master
// constraints that couple blocks, linking variables that appear in several
// blocks, and stairlinking variables shared by consecutive blocks only.
//
// # Architecture
//
// The typical data flow through blocktower:
//
//	Problem file (.toml / .json)
//	         ↓
//	    [problem] package (sparse model, constraint types)
//	         ↓
//	    [decomp] package (incidence index + partial decompositions)
//	         ↓
//	    [pool] package (multi-round search driving [detectors])
//	         ↓
//	    [export] package (.dec, JSON, DOT, SVG)
//
// [pipeline] runs the whole chain with caching from [cache] and is what the
// CLI calls.
//
// # Quick Start
//
//	prob, _ := problem.ReadFile("model.toml")
//	p, _ := pool.New(prob, config.Default(),
//	    pool.WithDetectors(detectors.All()...))
//	if _, err := p.FindDecompositions(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	best := p.Ranked()[0]
//	export.WriteDec(os.Stdout, best)
//
// # Main Packages
//
// [problem] - Variables, ranged constraints and their structural types
// (set partitioning, knapsack, ...), read from TOML or JSON.
//
// [config] - The immutable parameter set of a run, loaded from TOML.
//
// [decomp] - The incidence index and the partial decomposition with its
// booking, refinement, completion, stairlinking, aggregation and scores.
//
// [classify] - Constraint and variable classifiers that guide detectors
// and seed block-number candidates.
//
// [pool] - The decomposition pool: detector schedules, round loop,
// deduplication, ranking and translation between formulations.
//
// [detectors] - Built-in propagators, finishers and postprocessors.
//
// [export] - Structured records, the .dec text format and block diagrams.
//
// [observability] - Hooks for metrics and tracing with no-op defaults.
//
// [problem]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/problem
// [config]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/config
// [decomp]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/decomp
// [classify]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/classify
// [pool]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/pool
// [detectors]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/detectors
// [export]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/export
// [observability]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/blocktower/pkg/cache
package pkg
