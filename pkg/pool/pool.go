package pool

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/blocktower/pkg/classify"
	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/decomp"
	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// Pool owns the index of one problem and every decomposition derived from
// it. Decompositions live in an arena keyed by id; ancestry is a list of
// ids resolved through [Pool.Get].
//
// A Pool runs one search at a time. Its query methods are safe for
// concurrent use once FindDecompositions has returned.
type Pool struct {
	id     string
	prob   *problem.Problem
	idx    *decomp.Index
	cfg    config.Config
	logger *log.Logger

	scoreType       decomp.ScoreType
	consClassifiers []*classify.Classifier
	varClassifiers  []*classify.Classifier
	candidates      *candidates

	propagators    []registered
	finishers      []registered
	postprocessors []registered

	nextID atomic.Int64

	mu         sync.RWMutex
	arena      map[int]*decomp.Partial
	root       *decomp.Partial
	seeds      []*decomp.Partial
	finished   []*decomp.Partial
	incomplete []*decomp.Partial
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger. The default discards debug output.
func WithLogger(l *log.Logger) Option { return func(p *Pool) { p.logger = l } }

// WithDetectors registers detectors. Each is scheduled by the settings the
// configuration holds under its name.
func WithDetectors(ds ...Detector) Option {
	return func(p *Pool) {
		for _, d := range ds {
			p.register(d)
		}
	}
}

// WithClassifiers replaces the built-in classifiers.
func WithClassifiers(conss, vars []*classify.Classifier) Option {
	return func(p *Pool) {
		p.consClassifiers, p.varClassifiers = conss, vars
	}
}

// New indexes prob and prepares an empty root decomposition. cfg must be
// valid.
func New(prob *problem.Problem, cfg config.Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st, err := decomp.ParseScoreType(cfg.Score.Type)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		id:        uuid.NewString(),
		prob:      prob,
		idx:       decomp.NewIndex(prob, cfg.ConssAdjacencyThreshold),
		cfg:       cfg,
		logger:    log.Default(),
		scoreType: st,
		arena:     make(map[int]*decomp.Partial),
	}
	p.consClassifiers, p.varClassifiers = classify.Builtin(p.idx, cfg)
	for _, opt := range opts {
		opt(p)
	}
	sortRegistered(p.propagators)
	sortRegistered(p.finishers)
	sortRegistered(p.postprocessors)

	p.candidates = newCandidates(p.idx, p.consClassifiers, p.varClassifiers, cfg.MaxClassesForCandidates)
	for _, n := range cfg.UserCandidates {
		p.candidates.addUser(n)
	}

	p.root = p.NewPartial()
	p.root.Origin.Presolved = prob.Presolved
	p.stamp(p.root)
	p.arena[p.root.ID()] = p.root

	p.logger.Debug("pool created",
		"pool", p.id,
		"conss", p.idx.NConss(),
		"vars", p.idx.NVars(),
		"nonzeros", p.idx.NNonzeros(),
		"adjacency", p.idx.HasConssAdjacency(),
		"classifiers", len(p.consClassifiers)+len(p.varClassifiers))
	return p, nil
}

func (p *Pool) register(d Detector) {
	r := registered{d: d, schedule: p.cfg.DetectorSettings(d.Name())}
	if !r.schedule.Enabled {
		return
	}
	if _, ok := d.(Propagator); ok {
		p.propagators = append(p.propagators, r)
	}
	if _, ok := d.(Finisher); ok {
		p.finishers = append(p.finishers, r)
	}
	if _, ok := d.(Postprocessor); ok {
		p.postprocessors = append(p.postprocessors, r)
	}
}

// stamp gives d a fresh id and the pool's identity.
func (p *Pool) stamp(d *decomp.Partial) {
	d.SetID(int(p.nextID.Add(1) - 1))
	d.SetPoolID(p.id)
}

// admit adds d to list unless an equal decomposition is already there and
// gives it the next id. Workers never assign ids; results are admitted in
// input order after each round, so ids do not depend on scheduling. The
// caller holds p.mu.
func (p *Pool) admit(list *[]*decomp.Partial, d *decomp.Partial) bool {
	if !InsertIfNew(list, d) {
		return false
	}
	p.stamp(d)
	p.arena[d.ID()] = d
	return true
}

// =============================================================================
// Accessors
// =============================================================================

// ID returns the unique pool id stored in every decomposition it owns.
func (p *Pool) ID() string { return p.id }

// Problem returns the indexed problem.
func (p *Pool) Problem() *problem.Problem { return p.prob }

// Index returns the incidence index.
func (p *Pool) Index() *decomp.Index { return p.idx }

// Config returns the configuration.
func (p *Pool) Config() config.Config { return p.cfg }

// ScoreType returns the active score used for ranking.
func (p *Pool) ScoreType() decomp.ScoreType { return p.scoreType }

// ConsClassifiers returns the constraint classifiers.
func (p *Pool) ConsClassifiers() []*classify.Classifier { return p.consClassifiers }

// VarClassifiers returns the variable classifiers.
func (p *Pool) VarClassifiers() []*classify.Classifier { return p.varClassifiers }

// Root returns the all-open decomposition every search starts from.
func (p *Pool) Root() *decomp.Partial { return p.root }

// NewPartial returns an unregistered all-open decomposition over the pool's
// index, for building user decompositions.
func (p *Pool) NewPartial() *decomp.Partial { return decomp.New(p.idx, p.cfg) }

// Get resolves an id through the arena.
func (p *Pool) Get(id int) (*decomp.Partial, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.arena[id]
	return d, ok
}

// Ancestors resolves the ancestor ids of decomposition id, oldest first.
func (p *Pool) Ancestors(id int) ([]*decomp.Partial, error) {
	d, ok := p.Get(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "decomposition %d not in pool", id)
	}
	out := make([]*decomp.Partial, 0, len(d.Ancestors()))
	for _, a := range d.Ancestors() {
		if ad, ok := p.Get(a); ok {
			out = append(out, ad)
		}
	}
	return out, nil
}

// Finished returns the complete decompositions. After a search they are
// ranked by the active score.
func (p *Pool) Finished() []*decomp.Partial {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.finished)
}

// Incomplete returns decompositions that no finisher could complete.
func (p *Pool) Incomplete() []*decomp.Partial {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.incomplete)
}

// Ranked returns the finished decompositions sorted by the active score,
// best first. Equal scores keep the lower id first.
func (p *Pool) Ranked() []*decomp.Partial {
	return p.RankedBy(p.scoreType)
}

// RankedBy is Ranked with an explicit score type.
func (p *Pool) RankedBy(t decomp.ScoreType) []*decomp.Partial {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := slices.Clone(p.finished)
	Rank(out, t)
	return out
}

// Rank sorts decs by score t descending, breaking ties by ascending id.
func Rank(decs []*decomp.Partial, t decomp.ScoreType) {
	slices.SortStableFunc(decs, func(a, b *decomp.Partial) int {
		if c := cmp.Compare(b.Score(t), a.Score(t)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}

// =============================================================================
// User Decompositions
// =============================================================================

// AddUserDecomposition registers a decomposition built over this pool's
// index. Complete ones join the finished set, incomplete ones seed the next
// search. It reports false when an equal decomposition is already known.
func (p *Pool) AddUserDecomposition(d *decomp.Partial) (bool, error) {
	if d.Index() != p.idx {
		return false, errors.New(errors.ErrCodeInvalidInput, "decomposition was built for another index")
	}
	if d.HasBooked() {
		d.FlushBooked()
	}
	if err := d.CheckConsistency(); err != nil {
		return false, err
	}
	d.Origin.UserGiven = true
	return p.addSeed(d), nil
}

func (p *Pool) addSeed(d *decomp.Partial) bool {
	d.SetPoolID(p.id)
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.IsComplete() {
		return p.admit(&p.finished, d)
	}
	return p.admit(&p.seeds, d)
}

// =============================================================================
// Deduplication
// =============================================================================

// InsertIfNew appends cand to list unless an equal decomposition is already
// there. Hashes filter candidates; IsEqual decides.
func InsertIfNew(list *[]*decomp.Partial, cand *decomp.Partial) bool {
	h := cand.Hash()
	for _, e := range *list {
		if e.Hash() == h && e.IsEqual(cand) {
			return false
		}
	}
	*list = append(*list, cand)
	return true
}
