package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blocktower/pkg/pipeline"
	"github.com/matzehuels/blocktower/pkg/pool"
)

// candidatesCommand creates the candidates command.
func (c *CLI) candidatesCommand() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "candidates [problem]",
		Short: "List block-number candidates mined from the problem's classes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.openPool(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			cands := p.CandidatesNBlocks()
			if len(cands) == 0 {
				printWarning(c.Out, "No block-number candidates")
				return nil
			}
			fmt.Fprintln(c.Out, renderCandidates(cands))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// classifyCommand creates the classify command.
func (c *CLI) classifyCommand() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "classify [problem]",
		Short: "Show the constraint and variable classes of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.openPool(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, renderClassifiers("Constraint classifiers", p.ConsClassifiers()))
			fmt.Fprintln(c.Out, renderClassifiers("Variable classifiers", p.VarClassifiers()))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// openPool loads path and indexes it without searching.
func (c *CLI) openPool(ctx context.Context, path string, flags *configFlags) (*pool.Pool, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	loaded, err := pipeline.Load(path)
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	p, err := pipeline.NewPool(loaded.Problem, cfg, logger)
	if err != nil {
		return nil, err
	}
	printInfo(c.Out, "%s", StyleTitle.Render(loaded.Problem.Name))
	printStats(c.Out, p.Index().NConss(), p.Index().NVars(), p.Index().NNonzeros(), false)
	return p, nil
}
