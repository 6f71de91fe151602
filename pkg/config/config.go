// Package config holds the single immutable configuration shared by the
// incidence index, decompositions, classifiers, detectors and the pool.
//
// A [Config] is built once with [Default] or [Load], optionally adjusted by
// CLI flags, validated, and then passed by value. Nothing in blocktower looks
// parameters up globally.
//
// Configuration files are TOML:
//
//	max_rounds = 3
//	stairlinking_heuristic = true
//
//	[score]
//	type = "maxforeseeingwhite"
//	forbidden_master_types = ["varbound"]
//
//	[detectors.consclass]
//	max_round = 0
package config

import (
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/problem"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxRounds is the number of propagation rounds in the detection loop.
	DefaultMaxRounds = 3

	// DefaultConssAdjacencyThreshold is the largest nConss+nVars for which the
	// constraint-constraint adjacency is materialised.
	DefaultConssAdjacencyThreshold = 1_000_000

	// DefaultAggregationLimit bounds constraints and variables per block for
	// identical-block detection.
	DefaultAggregationLimit = 300

	// DefaultMaxClassesPerClassifier caps classes kept after reduction.
	DefaultMaxClassesPerClassifier = 9

	// DefaultMaxClassesForCandidates caps classes whose subsets are enumerated
	// when mining block-number candidates.
	DefaultMaxClassesForCandidates = 18

	// DefaultMaxClassesForDetection caps classes whose subsets the class-based
	// detectors enumerate.
	DefaultMaxClassesForDetection = 5

	// MaxSubsetClasses bounds every class limit. Subsets of up to this many
	// classes are enumerated exhaustively.
	MaxSubsetClasses = 24

	// DefaultNameSimilarityLimit is the largest number of constraints for which
	// the pairwise name-similarity classifier runs.
	DefaultNameSimilarityLimit = 5000

	// DefaultScoreType is the score used for ranking.
	DefaultScoreType = "maxforeseeingwhite"
)

// Identity checker strategies for aggregation.
const (
	CheckerAuto       = "auto"
	CheckerSequential = "sequential"
	CheckerSignature  = "signature"
)

// ScoreTypes lists the accepted score names in display order.
var ScoreTypes = []string{
	"maxwhite", "borderarea", "classic",
	"maxforeseeingwhite", "maxforeseeingwhiteagg",
	"setpartforeseeingwhite", "setpartforeseeingwhiteagg",
	"benders",
}

// =============================================================================
// Types
// =============================================================================

// ScoreWeights are the component weights of the classic score.
type ScoreWeights struct {
	Border  float64 `toml:"border"`
	Linking float64 `toml:"linking"`
	Density float64 `toml:"density"`
}

// Score groups scoring parameters.
type Score struct {
	Type                 string       `toml:"type"`
	Weights              ScoreWeights `toml:"weights"`
	SetPartBonus         float64      `toml:"setpart_bonus"`
	SingleBlockFactor    float64      `toml:"single_block_factor"`
	ForbiddenMasterTypes []string     `toml:"forbidden_master_types"`
}

// Aggregation groups identical-block detection parameters.
type Aggregation struct {
	Enabled            bool   `toml:"enabled"`
	Checker            string `toml:"checker"`
	LimitConssPerBlock int    `toml:"limit_conss_per_block"`
	LimitVarsPerBlock  int    `toml:"limit_vars_per_block"`
}

// Detector is the round window and switches of one collaborator.
// A zero MaxRound with Freq 0 means "first round only".
type Detector struct {
	Enabled  bool `toml:"enabled"`
	MinRound int  `toml:"min_round"`
	MaxRound int  `toml:"max_round"`
	Freq     int  `toml:"freq"`
	Reapply  bool `toml:"reapply"`
	Priority int  `toml:"priority"`
}

// Config is the immutable parameter set of one detection run.
type Config struct {
	MaxRounds               int  `toml:"max_rounds"`
	Workers                 int  `toml:"workers"`
	ConssAdjacencyThreshold int  `toml:"conss_adjacency_threshold"`
	StairlinkingHeuristic   bool `toml:"stairlinking_heuristic"`
	CheckConsistency        bool `toml:"check_consistency"`

	MaxClassesPerClassifier int `toml:"max_classes_per_classifier"`
	MaxClassesForCandidates int `toml:"max_classes_for_candidates"`
	MaxClassesForDetection  int `toml:"max_classes_for_detection"`
	NameSimilarityLimit     int `toml:"name_similarity_limit"`

	UserCandidates []int `toml:"user_candidates"`

	Score       Score               `toml:"score"`
	Aggregation Aggregation         `toml:"aggregation"`
	Detectors   map[string]Detector `toml:"detectors"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxRounds:               DefaultMaxRounds,
		Workers:                 runtime.GOMAXPROCS(0),
		ConssAdjacencyThreshold: DefaultConssAdjacencyThreshold,
		StairlinkingHeuristic:   true,
		MaxClassesPerClassifier: DefaultMaxClassesPerClassifier,
		MaxClassesForCandidates: DefaultMaxClassesForCandidates,
		MaxClassesForDetection:  DefaultMaxClassesForDetection,
		NameSimilarityLimit:     DefaultNameSimilarityLimit,
		Score: Score{
			Type:              DefaultScoreType,
			Weights:           ScoreWeights{Border: 0.6, Linking: 0.2, Density: 0.2},
			SetPartBonus:      0.5,
			SingleBlockFactor: 0.25,
		},
		Aggregation: Aggregation{
			Enabled:            true,
			Checker:            CheckerAuto,
			LimitConssPerBlock: DefaultAggregationLimit,
			LimitVarsPerBlock:  DefaultAggregationLimit,
		},
		Detectors: DefaultDetectors(),
	}
}

// DefaultDetectors returns the schedule of the built-in collaborators.
func DefaultDetectors() map[string]Detector {
	return map[string]Detector{
		"connected":     {Enabled: true, Priority: 0},
		"greedy":        {Enabled: true, Priority: 10},
		"consclass":     {Enabled: true, MaxRound: 0, Priority: 0},
		"varclass":      {Enabled: true, MaxRound: 0, Priority: 5},
		"setpartmaster": {Enabled: true, MaxRound: 1, Freq: 1, Priority: 0},
		"stairlinking":  {Enabled: true, Priority: 0},
	}
}

// Load reads a TOML file on top of Default. Unknown keys are rejected so
// typos surface instead of silently keeping defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	// Decoding into a nil map starts from the defaults per entry.
	defaults := cfg.Detectors
	cfg.Detectors = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.Detectors = mergeDetectors(defaults, cfg.Detectors, md)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeDetectors overlays per-detector tables from a file on the defaults,
// keeping default values for keys the file does not set.
func mergeDetectors(defaults, fromFile map[string]Detector, md toml.MetaData) map[string]Detector {
	out := make(map[string]Detector, len(defaults))
	for name, d := range defaults {
		out[name] = d
	}
	for name, d := range fromFile {
		base, ok := out[name]
		if !ok {
			base = Detector{Enabled: true}
		}
		if md.IsDefined("detectors", name, "enabled") {
			base.Enabled = d.Enabled
		}
		if md.IsDefined("detectors", name, "min_round") {
			base.MinRound = d.MinRound
		}
		if md.IsDefined("detectors", name, "max_round") {
			base.MaxRound = d.MaxRound
		}
		if md.IsDefined("detectors", name, "freq") {
			base.Freq = d.Freq
		}
		if md.IsDefined("detectors", name, "reapply") {
			base.Reapply = d.Reapply
		}
		if md.IsDefined("detectors", name, "priority") {
			base.Priority = d.Priority
		}
		out[name] = base
	}
	return out
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	switch {
	case c.MaxRounds < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "max_rounds must be >= 1, got %d", c.MaxRounds)
	case c.Workers < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 1, got %d", c.Workers)
	case c.ConssAdjacencyThreshold < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "conss_adjacency_threshold must be >= 0")
	case c.MaxClassesPerClassifier < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "max_classes_per_classifier must be >= 1")
	case c.MaxClassesForCandidates < 0, c.MaxClassesForDetection < 0, c.NameSimilarityLimit < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "class and similarity limits must be >= 0")
	case c.MaxClassesPerClassifier > MaxSubsetClasses,
		c.MaxClassesForCandidates > MaxSubsetClasses,
		c.MaxClassesForDetection > MaxSubsetClasses:
		return errors.New(errors.ErrCodeInvalidConfig, "class limits must be <= %d", MaxSubsetClasses)
	case c.Aggregation.LimitConssPerBlock < 0 || c.Aggregation.LimitVarsPerBlock < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "aggregation limits must be >= 0")
	}
	if !slices.Contains(ScoreTypes, strings.ToLower(c.Score.Type)) {
		return errors.New(errors.ErrCodeInvalidScore, "unknown score type %q (valid: %s)", c.Score.Type, strings.Join(ScoreTypes, ", "))
	}
	for _, name := range c.Score.ForbiddenMasterTypes {
		if _, err := problem.ParseConsType(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "forbidden_master_types")
		}
	}
	w := c.Score.Weights
	if w.Border < 0 || w.Linking < 0 || w.Density < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "score weights must be nonnegative")
	}
	switch c.Aggregation.Checker {
	case CheckerAuto, CheckerSequential, CheckerSignature:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown aggregation checker %q", c.Aggregation.Checker)
	}
	for _, n := range c.UserCandidates {
		if n < 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "user candidate block numbers must be >= 1, got %d", n)
		}
	}
	for name, d := range c.Detectors {
		if d.MinRound < 0 || d.MaxRound < 0 || d.Freq < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "detector %q: rounds and freq must be >= 0", name)
		}
		if d.MaxRound < d.MinRound && d.Freq > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "detector %q: max_round %d < min_round %d", name, d.MaxRound, d.MinRound)
		}
	}
	return nil
}

// DetectorSettings returns the schedule for name, or an enabled first-round
// default for detectors the configuration does not mention.
func (c Config) DetectorSettings(name string) Detector {
	if d, ok := c.Detectors[name]; ok {
		return d
	}
	return Detector{Enabled: true}
}

// Runs reports whether a detector with this schedule fires in round r.
// Freq 0 fires only at MinRound; otherwise every Freq rounds inside
// [MinRound, MaxRound].
func (d Detector) Runs(r int) bool {
	if !d.Enabled || r < d.MinRound {
		return false
	}
	if d.Freq == 0 {
		return r == d.MinRound
	}
	return r <= d.MaxRound && (r-d.MinRound)%d.Freq == 0
}

// DetectorNames returns configured detector names sorted.
func (c Config) DetectorNames() []string {
	names := make([]string, 0, len(c.Detectors))
	for n := range c.Detectors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String renders a compact summary for debug logs.
func (c Config) String() string {
	return fmt.Sprintf("rounds=%d workers=%d score=%s stairheur=%t agg=%s",
		c.MaxRounds, c.Workers, c.Score.Type, c.StairlinkingHeuristic, c.Aggregation.Checker)
}
