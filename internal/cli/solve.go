package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemover/internal/server"
	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

// policyAll runs every policy.
const policyAll = "all"

type solveFlags struct {
	runFlags
	format string
	json   bool
	trace  bool
	quiet  bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var flags solveFlags

	cmd := &cobra.Command{
		Use:   "solve [file]",
		Short: "Run the instructions and print the top crate of every stack",
		Long: `Run the instructions and print the top crate of every stack.

The puzzle is read from file, or from stdin if file is omitted or "-".
Use --policy all to run both cranes side by side.`,
		Example: `  cratemover solve input.txt
  cratemover solve --policy batch input.txt
  cat input.txt | cratemover solve --policy all --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.json {
				flags.format = pipeline.FormatJSON
			}
			if err := pipeline.ValidateFormat(flags.format); err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return c.runSolve(cmd, input, &flags)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&flags.format, "format", "f", pipeline.FormatText, "output format: text, json")
	cmd.Flags().BoolVar(&flags.json, "json", false, "shorthand for --format json")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "print the stacks after every move")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "print only the answers")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, input string, flags *solveFlags) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.options(&flags.runFlags)
	opts.Trace = flags.trace

	prog := newProgress(loggerFromContext(ctx))
	var results []*pipeline.Result
	if strings.EqualFold(opts.Policy, policyAll) {
		opts.Policy = ""
		results, err = runner.ExecuteAll(ctx, input, opts, supply.Policies)
	} else {
		var res *pipeline.Result
		res, err = runner.Execute(ctx, input, opts)
		results = []*pipeline.Result{res}
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Solved %d %s", len(results), plural(len(results), "policy", "policies")))

	out := cmd.OutOrStdout()
	switch {
	case flags.format == pipeline.FormatJSON:
		return writeResultsJSON(out, results)
	case flags.quiet:
		for _, r := range results {
			fmt.Fprintln(out, r.Answer)
		}
		return nil
	}
	for _, r := range results {
		printResult(out, r, flags.trace)
	}
	return nil
}

func writeResultsJSON(w io.Writer, results []*pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(server.SolveAllResponse{Results: results})
}

func printResult(w io.Writer, r *pipeline.Result, trace bool) {
	if trace {
		fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s · initial", r.Policy)))
		fmt.Fprintln(w, renderYard(r.Initial, nil))
		for _, snap := range r.Trace {
			fmt.Fprintln(w)
			fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s · step %d · %s", r.Policy, snap.Step, snap.Move)))
			fmt.Fprintln(w, renderYard(snap.Stacks, &snap.Move))
		}
		fmt.Fprintln(w)
	}

	if r.Defaulted {
		printWarning(w, "%s: diagram could not be read, answer is empty", r.Policy)
	}
	if n := len(r.Skipped); n > 0 {
		printWarning(w, "%s: skipped %d %s (lines %s)", r.Policy, n, plural(n, "instruction", "instructions"), joinInts(r.Skipped))
	}
	printSuccess(w, "%s", StyleAnswer.Render(r.Answer))
	printStats(w, r.Policy, r.Stats.StackCount, r.Stats.CrateCount, r.Stats.MoveCount, r.CacheHit)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
