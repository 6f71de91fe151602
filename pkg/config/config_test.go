package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blocktower/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocktower.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultMaxRounds, cfg.MaxRounds)
	assert.Equal(t, "maxforeseeingwhite", cfg.Score.Type)
	assert.InDelta(t, 1.0, cfg.Score.Weights.Border+cfg.Score.Weights.Linking+cfg.Score.Weights.Density, 1e-12)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
max_rounds = 5
workers = 2
user_candidates = [4, 2]

[score]
type = "classic"
forbidden_master_types = ["varbound"]

[aggregation]
checker = "signature"

[detectors.greedy]
enabled = false

[detectors.consclass]
max_round = 2
freq = 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRounds)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []int{4, 2}, cfg.UserCandidates)
	assert.Equal(t, "classic", cfg.Score.Type)
	assert.Equal(t, []string{"varbound"}, cfg.Score.ForbiddenMasterTypes)
	assert.Equal(t, 0.6, cfg.Score.Weights.Border, "unset keys keep defaults")
	assert.Equal(t, CheckerSignature, cfg.Aggregation.Checker)
	assert.Equal(t, DefaultAggregationLimit, cfg.Aggregation.LimitConssPerBlock)

	assert.False(t, cfg.DetectorSettings("greedy").Enabled)
	assert.Equal(t, 10, cfg.DetectorSettings("greedy").Priority, "priority survives partial override")
	cc := cfg.DetectorSettings("consclass")
	assert.True(t, cc.Enabled)
	assert.Equal(t, 2, cc.MaxRound)
	assert.True(t, cfg.DetectorSettings("connected").Enabled, "untouched detectors keep defaults")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"unknown key", "max_rondz = 2", errors.ErrCodeInvalidConfig},
		{"bad toml", "max_rounds = = 2", errors.ErrCodeInvalidConfig},
		{"bad score", "[score]\ntype = \"best\"", errors.ErrCodeInvalidScore},
		{"zero rounds", "max_rounds = 0", errors.ErrCodeInvalidConfig},
		{"bad checker", "[aggregation]\nchecker = \"hash\"", errors.ErrCodeInvalidConfig},
		{"bad candidate", "user_candidates = [0]", errors.ErrCodeInvalidConfig},
		{"bad forbidden type", "[score]\nforbidden_master_types = [\"odd\"]", errors.ErrCodeInvalidConfig},
		{"too many classes per classifier", "max_classes_per_classifier = 25", errors.ErrCodeInvalidConfig},
		{"too many candidate classes", "max_classes_for_candidates = 40", errors.ErrCodeInvalidConfig},
		{"too many detection classes", "max_classes_for_detection = 64", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestDetectorRuns(t *testing.T) {
	tests := []struct {
		name string
		d    Detector
		runs []bool
	}{
		{"first round only", Detector{Enabled: true}, []bool{true, false, false}},
		{"disabled", Detector{}, []bool{false, false, false}},
		{"every round", Detector{Enabled: true, MaxRound: 2, Freq: 1}, []bool{true, true, true}},
		{"late start", Detector{Enabled: true, MinRound: 1, MaxRound: 2, Freq: 1}, []bool{false, true, true}},
		{"every other", Detector{Enabled: true, MaxRound: 2, Freq: 2}, []bool{true, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for r, want := range tt.runs {
				assert.Equal(t, want, tt.d.Runs(r), "round %d", r)
			}
		})
	}
}

func TestDetectorSettingsUnknown(t *testing.T) {
	cfg := Default()
	d := cfg.DetectorSettings("custom")
	assert.True(t, d.Enabled)
	assert.True(t, d.Runs(0))
	assert.Contains(t, cfg.DetectorNames(), "stairlinking")
}

func TestValidateClassLimitBoundary(t *testing.T) {
	cfg := Default()
	cfg.MaxClassesPerClassifier = MaxSubsetClasses
	cfg.MaxClassesForCandidates = MaxSubsetClasses
	cfg.MaxClassesForDetection = MaxSubsetClasses
	require.NoError(t, cfg.Validate())

	cfg.MaxClassesForCandidates = MaxSubsetClasses + 1
	assert.True(t, errors.Is(cfg.Validate(), errors.ErrCodeInvalidConfig))
}
