package pool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/observability"
)

// stateResult collects what the detectors produced for one input state.
// Each worker owns one; they are merged in input order after the round.
type stateResult struct {
	next     []*decomp.Partial
	finished []*decomp.Partial
}

// Summary describes a finished search.
type Summary struct {
	Rounds     int
	Finished   int
	Incomplete int
	Duration   time.Duration
}

// FindDecompositions runs the detection rounds starting from the root and
// any seeds, finishes what is still incomplete, postprocesses the finished
// set and leaves it ranked by the active score.
//
// In each round every current decomposition is handed, as a private clone,
// to each propagator whose schedule fires; results that are complete join
// the finished set, incomplete non-trivial results form the next round.
// Finishers then complete a clone of every current decomposition. Equal
// decompositions are kept once, the first arrival in input order winning.
//
// The context is checked between rounds. A consistency violation after a
// collaborator aborts the search when cfg.CheckConsistency is set.
func (p *Pool) FindDecompositions(ctx context.Context) (Summary, error) {
	start := time.Now()
	hooks := observability.Detection()

	p.mu.Lock()
	current := []*decomp.Partial{p.root}
	for _, s := range p.seeds {
		InsertIfNew(&current, s)
	}
	p.seeds = nil
	p.mu.Unlock()

	round := 0
	for ; round < p.cfg.MaxRounds && len(current) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		roundStart := time.Now()
		hooks.OnRoundStart(ctx, round, len(current))

		results, err := p.runRound(ctx, round, current)
		if err != nil {
			return Summary{}, err
		}

		var next []*decomp.Partial
		p.mu.Lock()
		for _, r := range results {
			for _, d := range r.next {
				p.admit(&next, d)
			}
			for _, d := range r.finished {
				p.admit(&p.finished, d)
			}
		}
		nFinished := len(p.finished)
		p.mu.Unlock()

		hooks.OnRoundComplete(ctx, round, len(next), nFinished, time.Since(roundStart))
		p.logger.Debug("round complete",
			"round", round,
			"states", len(current),
			"next", len(next),
			"finished", nFinished,
			"duration", time.Since(roundStart))
		current = next
	}

	if err := p.finishRemaining(ctx, round, current); err != nil {
		return Summary{}, err
	}
	if err := p.postprocess(ctx, round); err != nil {
		return Summary{}, err
	}

	p.mu.Lock()
	Rank(p.finished, p.scoreType)
	sum := Summary{
		Rounds:     round,
		Finished:   len(p.finished),
		Incomplete: len(p.incomplete),
		Duration:   time.Since(start),
	}
	p.mu.Unlock()

	p.logger.Info("detection complete",
		"rounds", sum.Rounds,
		"finished", sum.Finished,
		"incomplete", sum.Incomplete,
		"duration", sum.Duration)
	return sum, nil
}

// runRound processes every state of one round on at most cfg.Workers
// goroutines.
func (p *Pool) runRound(ctx context.Context, round int, current []*decomp.Partial) ([]stateResult, error) {
	results := make([]stateResult, len(current))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, st := range current {
		g.Go(func() error {
			r, err := p.processState(gctx, round, st)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pool) processState(ctx context.Context, round int, st *decomp.Partial) (stateResult, error) {
	var res stateResult
	for _, r := range p.propagators {
		if !r.schedule.Runs(round) || (st.HasDetector(r.d.Name()) && !r.schedule.Reapply) {
			continue
		}
		prop := r.d.(Propagator)
		out, dur := p.call(ctx, r.d.Name(), round, st, prop.Propagate)
		for _, d := range out {
			if err := p.accept(d, st, r.d.Name(), dur); err != nil {
				return res, err
			}
			switch {
			case d.IsComplete():
				InsertIfNew(&res.finished, d)
			case !d.IsTrivial():
				InsertIfNew(&res.next, d)
			}
		}
	}

	finished, err := p.finish(ctx, round, st)
	if err != nil {
		return res, err
	}
	for _, d := range finished {
		InsertIfNew(&res.finished, d)
	}
	return res, nil
}

// finish runs every finisher on a clone of st and returns the complete
// results.
func (p *Pool) finish(ctx context.Context, round int, st *decomp.Partial) ([]*decomp.Partial, error) {
	var out []*decomp.Partial
	for _, r := range p.finishers {
		fin := r.d.(Finisher)
		decs, dur := p.call(ctx, r.d.Name(), round, st, fin.Finish)
		for _, d := range decs {
			if !d.IsComplete() {
				p.logger.Warn("finisher left open items", "detector", r.d.Name(), "dec", st.ID())
				continue
			}
			if err := p.accept(d, st, r.d.Name(), dur); err != nil {
				return nil, err
			}
			d.Origin.FinishedByFinisher = true
			out = append(out, d)
		}
	}
	return out, nil
}

// call clones st, runs fn and reports the successful results. Errors and
// empty outcomes are logged and yield nothing.
func (p *Pool) call(ctx context.Context, name string, round int, st *decomp.Partial,
	fn func(context.Context, *Input) Output) ([]*decomp.Partial, time.Duration) {
	in := &Input{
		Partial:         st.Clone(),
		Index:           p.idx,
		ConsClassifiers: p.consClassifiers,
		VarClassifiers:  p.varClassifiers,
		Candidates:      p.candidates.list(),
		Config:          p.cfg,
		Round:           round,
		Logger:          p.logger,
	}
	start := time.Now()
	out := fn(ctx, in)
	dur := time.Since(start)
	observability.Detection().OnDetectorCall(ctx, name, out.Status.String(), len(out.Decomps), dur)

	switch out.Status {
	case StatusSuccess:
		return out.Decomps, dur
	case StatusError:
		p.logger.Warn("detector failed", "detector", name, "dec", st.ID(), "err", out.Err)
	}
	return nil, dur
}

// accept records a collaborator result as a child of parent and checks it.
// The result gets its id when it is admitted to a pool list.
func (p *Pool) accept(d, parent *decomp.Partial, name string, dur time.Duration) error {
	if d.HasBooked() {
		d.FlushBooked()
	}
	d.Sort()
	d.SetID(-1)
	d.SetPoolID(p.id)
	d.AddAncestor(parent.ID())
	d.AddStep(decomp.NewStep(name, parent, d, dur))
	if !p.cfg.CheckConsistency {
		return nil
	}
	if err := d.CheckConsistency(); err != nil {
		return errors.Wrap(errors.ErrCodeInconsistent, err, "detector %s on dec %d", name, parent.ID())
	}
	return nil
}

// finishRemaining completes the states the round budget left open. States
// no finisher completes are kept as incomplete.
func (p *Pool) finishRemaining(ctx context.Context, round int, current []*decomp.Partial) error {
	for _, st := range current {
		finished, err := p.finish(ctx, round, st)
		if err != nil {
			return err
		}
		p.mu.Lock()
		if len(finished) == 0 {
			p.incomplete = append(p.incomplete, st)
		}
		for _, d := range finished {
			p.admit(&p.finished, d)
		}
		p.mu.Unlock()
	}
	return nil
}

// postprocess runs every postprocessor once on each finished decomposition
// present before the pass.
func (p *Pool) postprocess(ctx context.Context, round int) error {
	if len(p.postprocessors) == 0 {
		return nil
	}
	for _, st := range p.Finished() {
		for _, r := range p.postprocessors {
			post := r.d.(Postprocessor)
			decs, dur := p.call(ctx, r.d.Name(), round, st, post.Postprocess)
			for _, d := range decs {
				if !d.IsComplete() {
					p.logger.Warn("postprocessor left open items", "detector", r.d.Name(), "dec", st.ID())
					continue
				}
				if err := p.accept(d, st, r.d.Name(), dur); err != nil {
					return err
				}
				p.mu.Lock()
				p.admit(&p.finished, d)
				p.mu.Unlock()
			}
		}
	}
	return nil
}

// String renders a one-line pool summary.
func (p *Pool) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fmt.Sprintf("pool %s: conss=%d vars=%d finished=%d incomplete=%d",
		p.id, p.idx.NConss(), p.idx.NVars(), len(p.finished), len(p.incomplete))
}
