// Package pipeline runs the load -> detect -> export pipeline of blocktower.
//
// The CLI and tests share this package so that every entry point loads
// problems, schedules detectors and names artifacts the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a problem file (.toml or .json) and hash its content
//  2. Detect: build a [pool.Pool] with the built-in detectors and search
//  3. Export: write the best decompositions as JSON, .dec, DOT or SVG
//
// Detection results and artifacts are cached by problem hash and
// configuration, so rerunning on an unchanged problem skips the search.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ProblemPath: "model.toml",
//	    Formats:     []string{pipeline.FormatDec},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range result.Artifacts {
//	    os.WriteFile(a.Filename("model", len(result.Records) > 1), a.Data, 0o644)
//	}
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/export"
	"github.com/matzehuels/blocktower/pkg/pool"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultTop is the number of ranked decompositions exported by default.
const DefaultTop = 1

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDec  = "dec"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatJSON, FormatDec, FormatDOT, FormatSVG}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// ProblemPath is the problem file to decompose.
	ProblemPath string
	// TranslateFrom optionally names another formulation of the same
	// problem, typically the original before presolving. Its decompositions
	// are detected first and translated into seeds for ProblemPath.
	TranslateFrom string

	// Config is the detection configuration. Nil means config.Default().
	Config *config.Config

	Formats  []string
	Top      int
	Detailed bool
	// Refresh ignores cached results but still stores new ones.
	Refresh bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Problem is the loaded problem.
	Problem *problem.Problem

	// ProblemHash is the content hash of the problem file.
	ProblemHash string

	// Pool is the decomposition pool of the search. It is nil when the
	// result came from the cache.
	Pool *pool.Pool

	// Summary describes the search.
	Summary pool.Summary

	// Records are the exported decompositions, best first.
	Records []export.Record

	// Artifacts are the rendered outputs in format order.
	Artifacts []Artifact

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Artifact is one exported file.
type Artifact struct {
	Format string `json:"format"`
	// Rank is the position of the decomposition in the ranking, starting
	// at 1. It is 0 for formats that hold every exported decomposition.
	Rank int    `json:"rank"`
	ID   int    `json:"id"`
	Data []byte `json:"data"`
}

// Filename derives a file name for the artifact from base. Per-decomposition
// artifacts get their rank appended when more than one was exported.
func (a Artifact) Filename(base string, multiple bool) string {
	if a.Rank == 0 || !multiple {
		return fmt.Sprintf("%s.%s", base, a.Format)
	}
	return fmt.Sprintf("%s_%d.%s", base, a.Rank, a.Format)
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NConss     int
	NVars      int
	NNonzeros  int
	LoadTime   time.Duration
	DetectTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DetectHit bool // ranked records came from cache
	ExportHit bool // every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: %s)", format, strings.Join(ValidFormats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list. An empty string
// selects .dec output.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{FormatDec}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ProblemPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "problem path is required")
	}
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDec}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Top == 0 {
		o.Top = DefaultTop
	}
	if o.Top < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "top must be >= 1, got %d", o.Top)
	}
	return nil
}
