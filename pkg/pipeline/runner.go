package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blocktower/pkg/cache"
	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/export"
	"github.com/matzehuels/blocktower/pkg/observability"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedDetection is the cache payload of the detect stage.
type cachedDetection struct {
	Summary pool.Summary    `json:"summary"`
	Records []export.Record `json:"records"`
}

// Execute runs the complete load -> detect -> export pipeline with caching.
// A run whose records and artifacts are all cached skips the search.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	hooks.OnLoadStart(ctx, opts.ProblemPath)
	loaded, err := Load(opts.ProblemPath)
	result.Stats.LoadTime = time.Since(loadStart)
	if err != nil {
		hooks.OnLoadComplete(ctx, opts.ProblemPath, 0, 0, result.Stats.LoadTime, err)
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Problem = loaded.Problem
	result.ProblemHash = loaded.Hash
	result.Stats.NConss = loaded.Problem.NConss()
	result.Stats.NVars = loaded.Problem.NVars()
	result.Stats.NNonzeros = loaded.Problem.NNonzeros()
	hooks.OnLoadComplete(ctx, opts.ProblemPath, result.Stats.NConss, result.Stats.NVars, result.Stats.LoadTime, nil)

	r.Logger.Info("loaded problem",
		"name", loaded.Problem.Name,
		"conss", result.Stats.NConss,
		"vars", result.Stats.NVars,
		"nonzeros", result.Stats.NNonzeros,
		"duration", result.Stats.LoadTime)

	seedHash := ""
	var source *Loaded
	if opts.TranslateFrom != "" {
		if source, err = Load(opts.TranslateFrom); err != nil {
			return nil, fmt.Errorf("load %s: %w", opts.TranslateFrom, err)
		}
		seedHash = source.Hash
	}

	// Results do not depend on the worker count.
	keyCfg := *opts.Config
	keyCfg.Workers = 0
	detectKey := r.Keyer.DetectionKey(loaded.Hash, cache.DetectionKeyOpts{
		Config: keyCfg,
		Seeds:  seedHash,
		Top:    opts.Top,
	})

	if !opts.Refresh {
		if cached, artifacts, ok := r.lookup(ctx, detectKey, opts); ok {
			result.Summary = cached.Summary
			result.Records = cached.Records
			result.Artifacts = artifacts
			result.CacheInfo = CacheInfo{DetectHit: true, ExportHit: true}
			r.Logger.Info("using cached decompositions", "decompositions", len(cached.Records))
			return result, nil
		}
	}

	// Stage 2: Detect
	detectStart := time.Now()
	hooks.OnDetectStart(ctx, loaded.Problem.Name)
	p, err := NewPool(loaded.Problem, *opts.Config, r.Logger)
	if err == nil && source != nil {
		err = r.seedFrom(ctx, p, source, *opts.Config)
	}
	if err == nil {
		result.Summary, err = p.FindDecompositions(ctx)
	}
	result.Stats.DetectTime = time.Since(detectStart)
	if err != nil {
		hooks.OnDetectComplete(ctx, loaded.Problem.Name, 0, result.Stats.DetectTime, err)
		return nil, fmt.Errorf("detect: %w", err)
	}
	result.Pool = p
	hooks.OnDetectComplete(ctx, loaded.Problem.Name, result.Summary.Finished, result.Stats.DetectTime, nil)

	r.Logger.Info("detected decompositions",
		"finished", result.Summary.Finished,
		"incomplete", result.Summary.Incomplete,
		"rounds", result.Summary.Rounds,
		"duration", result.Stats.DetectTime)

	// Stage 3: Export
	exportStart := time.Now()
	hooks.OnExportStart(ctx, opts.Formats)
	top := Top(p, opts.Top)
	result.Records = make([]export.Record, len(top))
	for i, d := range top {
		result.Records[i] = export.NewRecord(d)
	}
	result.Artifacts, err = Export(ctx, top, opts.Formats, opts.Detailed)
	result.Stats.ExportTime = time.Since(exportStart)
	hooks.OnExportComplete(ctx, opts.Formats, result.Stats.ExportTime, err)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	r.Logger.Info("exported decompositions",
		"decompositions", len(top),
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	r.store(ctx, detectKey, cachedDetection{Summary: result.Summary, Records: result.Records}, result.Artifacts, opts)
	return result, nil
}

// seedFrom searches the source formulation and translates its finished
// and incomplete decompositions into seeds of p.
func (r *Runner) seedFrom(ctx context.Context, p *pool.Pool, source *Loaded, cfg config.Config) error {
	src, err := NewPool(source.Problem, cfg, r.Logger)
	if err != nil {
		return err
	}
	if _, err := src.FindDecompositions(ctx); err != nil {
		return fmt.Errorf("search %s: %w", source.Problem.Name, err)
	}
	decs := append(src.Ranked(), src.Incomplete()...)
	kept := p.Translate(src, decs)
	r.Logger.Info("translated decompositions",
		"from", source.Problem.Name,
		"given", len(decs),
		"kept", len(kept))
	return nil
}

// lookup returns the cached records and every requested artifact. It
// reports false unless all of them are present.
func (r *Runner) lookup(ctx context.Context, detectKey string, opts Options) (cachedDetection, []Artifact, bool) {
	var cached cachedDetection
	data, hit, err := r.Cache.Get(ctx, detectKey)
	if err != nil || !hit || json.Unmarshal(data, &cached) != nil {
		return cachedDetection{}, nil, false
	}
	var artifacts []Artifact
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(detectKey, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed})
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return cachedDetection{}, nil, false
		}
		var as []Artifact
		if err := json.Unmarshal(data, &as); err != nil {
			return cachedDetection{}, nil, false
		}
		artifacts = append(artifacts, as...)
	}
	return cached, artifacts, true
}

// store caches the records and the artifacts grouped by format. Cache
// failures are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, detectKey string, det cachedDetection, artifacts []Artifact, opts Options) {
	put := func(key string, v any) {
		data, err := json.Marshal(v)
		if err == nil {
			err = r.Cache.Set(ctx, key, data, cache.DefaultTTL)
		}
		if err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		}
	}
	put(detectKey, det)
	for _, format := range opts.Formats {
		var group []Artifact
		for _, a := range artifacts {
			if a.Format == format {
				group = append(group, a)
			}
		}
		put(r.Keyer.ArtifactKey(detectKey, cache.ArtifactKeyOpts{Format: format, Detailed: opts.Detailed}), group)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
