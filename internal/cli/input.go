package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/pipeline"
)

// readInput reads the puzzle from the file named by the first argument, or
// from stdin when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
		name = args[0]
	}

	data, err := io.ReadAll(io.LimitReader(r, errors.MaxInputSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > errors.MaxInputSize {
		return "", errors.New(errors.ErrCodeInvalidInput, "%s is larger than %d bytes", name, errors.MaxInputSize)
	}
	return string(data), nil
}

// =============================================================================
// Run Flags
// =============================================================================

// runFlags are the flags shared by every command that runs the pipeline.
// Empty values fall back to the configuration.
type runFlags struct {
	policy     string
	errorMode  string
	headerMode string
	lenient    bool
	noCache    bool
	refresh    bool
}

func (f *runFlags) register(cmd *cobra.Command, withPolicy bool) {
	if withPolicy {
		cmd.Flags().StringVarP(&f.policy, "policy", "p", "", "crane policy: sequential (9000), batch (9001)")
	}
	cmd.Flags().StringVar(&f.errorMode, "error-mode", "", "strict or lenient")
	cmd.Flags().BoolVar(&f.lenient, "lenient", false, "shorthand for --error-mode lenient")
	cmd.Flags().StringVar(&f.headerMode, "header-mode", "", "stack index parsing: token or digit")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached answers")
}

// options merges the flags over the configured defaults.
func (c *CLI) options(f *runFlags) pipeline.Options {
	opts := pipeline.Options{
		Policy:     c.cfg.Policy,
		ErrorMode:  c.cfg.ErrorMode,
		HeaderMode: c.cfg.HeaderMode,
		Refresh:    f.refresh,
		Logger:     c.Logger,
	}
	if f.policy != "" {
		opts.Policy = f.policy
	}
	if f.errorMode != "" {
		opts.ErrorMode = f.errorMode
	}
	if f.lenient {
		opts.ErrorMode = string(pipeline.ErrorModeLenient)
	}
	if f.headerMode != "" {
		opts.HeaderMode = f.headerMode
	}
	return opts
}
