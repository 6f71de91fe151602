package pool

import (
	"cmp"
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
)

// Status is the outcome of one collaborator call.
type Status int

const (
	// StatusNotFound means the collaborator had nothing to contribute.
	StatusNotFound Status = iota
	// StatusSuccess means Decomps holds the results.
	StatusSuccess
	// StatusError means the collaborator failed; its results are ignored.
	StatusError
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "notfound"
}

// Input is what a collaborator sees: a private clone it may mutate or
// clone further, and read-only problem data.
type Input struct {
	Partial         *decomp.Partial
	Index           *decomp.Index
	ConsClassifiers []*classify.Classifier
	VarClassifiers  []*classify.Classifier
	Candidates      []Candidate
	Config          config.Config
	Round           int
	Logger          *log.Logger
}

// Output is the result of a collaborator call. Err explains StatusError.
type Output struct {
	Status  Status
	Decomps []*decomp.Partial
	Err     error
}

// NotFound is the empty result.
func NotFound() Output { return Output{Status: StatusNotFound} }

// Success wraps results.
func Success(decs ...*decomp.Partial) Output {
	return Output{Status: StatusSuccess, Decomps: decs}
}

// Failed reports an error.
func Failed(err error) Output { return Output{Status: StatusError, Err: err} }

// Detector is the common part of every collaborator. A detector takes part
// in every phase whose interface it implements.
type Detector interface {
	Name() string
}

// Propagator extends an incomplete decomposition during a round. Results may
// be complete or not.
type Propagator interface {
	Detector
	Propagate(ctx context.Context, in *Input) Output
}

// Finisher completes a decomposition. Every result of a successful call must
// have no open items.
type Finisher interface {
	Detector
	Finish(ctx context.Context, in *Input) Output
}

// Postprocessor derives variants from a complete decomposition.
type Postprocessor interface {
	Detector
	Postprocess(ctx context.Context, in *Input) Output
}

// Schedule controls when a detector runs. Propagators fire in the rounds
// selected by [config.Detector.Runs]; finishers and postprocessors only
// honour Enabled.
type Schedule = config.Detector

type registered struct {
	d        Detector
	schedule Schedule
}

// sortRegistered orders detectors by descending priority, then by name.
func sortRegistered(rs []registered) {
	slices.SortStableFunc(rs, func(a, b registered) int {
		if c := cmp.Compare(b.schedule.Priority, a.schedule.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.d.Name(), b.d.Name())
	})
}
