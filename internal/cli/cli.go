// Package cli implements the blocktower command-line interface.
//
// The commands are:
//   - detect: search decompositions of a problem file and export the best
//   - candidates: list the mined block-number candidates of a problem
//   - classify: show the constraint and variable classifiers of a problem
//   - cache: manage the detection result cache
//   - completion: generate shell completion scripts (cobra's default)
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is attached to the command context and retrieved with loggerFromContext.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blocktower/pkg/buildinfo"
	"github.com/matzehuels/blocktower/pkg/cache"
	"github.com/matzehuels/blocktower/pkg/config"
	"github.com/matzehuels/blocktower/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "blocktower"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Out receives command output such as tables and file listings.
	Out io.Writer
}

// New creates a new CLI instance logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Blocktower detects block-angular structure in sparse constraint systems",
		Long: `Blocktower partitions the constraints and variables of a sparse mixed-integer
problem into independent blocks plus a shared border, identifying linking and
stairlinking variables along the way.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	root.AddCommand(c.detectCommand())
	root.AddCommand(c.candidatesCommand())
	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// the build version so upgrades never read stale results.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cc, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/blocktower/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Configuration
// =============================================================================

// configFlags are the detection settings every problem command accepts.
type configFlags struct {
	path      string
	rounds    int
	workers   int
	score     string
	check     bool
	userCands []int
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "TOML configuration file")
	cmd.Flags().IntVar(&f.rounds, "rounds", 0, "maximum detection rounds (overrides config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel workers per round (overrides config)")
	cmd.Flags().StringVar(&f.score, "score", "", "score used for ranking (overrides config)")
	cmd.Flags().BoolVar(&f.check, "check", false, "verify consistency after every detector call")
	cmd.Flags().IntSliceVar(&f.userCands, "candidates", nil, "extra block-number candidates")
}

// load reads the configuration file, if any, and applies flag overrides.
func (f *configFlags) load() (config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		var err error
		if cfg, err = config.Load(f.path); err != nil {
			return config.Config{}, err
		}
	}
	if f.rounds > 0 {
		cfg.MaxRounds = f.rounds
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.score != "" {
		cfg.Score.Type = f.score
	}
	if f.check {
		cfg.CheckConsistency = true
	}
	cfg.UserCandidates = append(cfg.UserCandidates, f.userCands...)
	return cfg, cfg.Validate()
}
