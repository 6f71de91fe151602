package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blocktower/pkg/errors"
	"github.com/matzehuels/blocktower/pkg/pipeline"
)

// detectOpts holds the command-line flags for the detect command.
type detectOpts struct {
	cfg           configFlags
	output        string // base path of the written files
	formats       string // comma-separated output formats
	top           int    // number of ranked decompositions to export
	detailed      bool   // label DOT edges with item counts
	translateFrom string // original formulation to translate seeds from
	noCache       bool
	refresh       bool
}

// detectCommand creates the detect command.
func (c *CLI) detectCommand() *cobra.Command {
	opts := detectOpts{top: pipeline.DefaultTop}

	cmd := &cobra.Command{
		Use:   "detect [problem]",
		Short: "Detect block-angular decompositions of a problem",
		Long: `Detect runs the multi-round decomposition search on a .toml or .json problem
and writes the best decompositions in the requested formats.

Output files are named after --output (default: the problem file name in the
current directory). With --top > 1, per-decomposition files get their rank
appended, e.g. model_2.dec.`,
		Example: `  blocktower detect model.toml
  blocktower detect model.toml -f dec,svg -n 3 -o out/model
  blocktower detect presolved.toml --translate-from original.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDetect(cmd.Context(), args[0], opts)
		},
	}

	opts.cfg.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "base path for output files")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): dec (default), json, dot, svg (comma-separated)")
	cmd.Flags().IntVarP(&opts.top, "top", "n", opts.top, "number of ranked decompositions to export")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show item counts on block diagram edges")
	cmd.Flags().StringVar(&opts.translateFrom, "translate-from", "", "detect on this formulation first and translate its decompositions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runDetect(ctx context.Context, path string, opts detectOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := opts.cfg.load()
	if err != nil {
		return err
	}
	formats := pipeline.ParseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}
	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := errors.ValidatePath(base); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, pipeline.Options{
		ProblemPath:   path,
		TranslateFrom: opts.translateFrom,
		Config:        &cfg,
		Formats:       formats,
		Top:           opts.top,
		Detailed:      opts.detailed,
		Refresh:       opts.refresh,
	})
	if err != nil {
		return err
	}
	prog.done("Detection finished")

	printInfo(c.Out, "%s", StyleTitle.Render(res.Problem.Name))
	printStats(c.Out, res.Stats.NConss, res.Stats.NVars, res.Stats.NNonzeros, res.CacheInfo.DetectHit)
	printKeyValue(c.Out, "Rounds", fmt.Sprint(res.Summary.Rounds))
	printKeyValue(c.Out, "Finished", fmt.Sprint(res.Summary.Finished))
	printKeyValue(c.Out, "Incomplete", fmt.Sprint(res.Summary.Incomplete))

	if len(res.Records) == 0 {
		printWarning(c.Out, "No complete decomposition found")
		return nil
	}
	fmt.Fprintln(c.Out, renderDecompositions(res.Records, cfg.Score.Type))

	written, err := writeArtifacts(base, res.Artifacts, len(res.Records) > 1)
	if err != nil {
		return err
	}
	printSuccess(c.Out, "Wrote %d file(s)", len(written))
	for _, f := range written {
		printFile(c.Out, f)
	}
	if !slices.Contains(formats, pipeline.FormatSVG) {
		printNextStep(c.Out, "Draw the block structure", fmt.Sprintf("%s detect %s -f svg", appName, path))
	}
	return nil
}

// writeArtifacts writes every artifact next to base and returns the paths.
func writeArtifacts(base string, artifacts []pipeline.Artifact, multiple bool) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	var written []string
	for _, a := range artifacts {
		name := a.Filename(base, multiple)
		if err := os.WriteFile(name, a.Data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}
