package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemover/internal/server"
	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

// stacksCommand creates the stacks command.
func (c *CLI) stacksCommand() *cobra.Command {
	var (
		flags  runFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "stacks [file]",
		Short: "Show the stacks parsed from the diagram",
		Long: `Show the initial stacks parsed from the diagram, one row per stack,
bottom crate first. The instructions are not run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.options(&flags)
			stacks, hit, err := runner.Stacks(ctx, input, opts.HeaderMode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == pipeline.FormatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(server.StacksResponse{
					Stacks:   stacks,
					Tops:     stacks.Tops(),
					Crates:   stacks.Total(),
					CacheHit: hit,
				})
			}
			printStacks(out, stacks, hit)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.headerMode, "header-mode", "", "stack index parsing: token or digit")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatText, "output format: text, json")

	return cmd
}

func printStacks(w io.Writer, stacks supply.Stacks, cached bool) {
	fmt.Fprintln(w, renderYard(stacks, nil))
	fmt.Fprintln(w)
	fmt.Fprintln(w, stacksTable(stacks).Render())

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	printDetail(w, "%d stacks · %d crates · tops %s · %s", stacks.Len(), stacks.Total(), stacks.Tops(), status)
}

// stacksTable lists every stack with its height, top crate and contents.
func stacksTable(stacks supply.Stacks) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, stacks.Len())
	for i, s := range stacks {
		top := "—"
		if c, ok := s.Top(); ok {
			top = c.String()
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(len(s)), top, s.String()})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Stack", "Height", "Top", "Crates (bottom → top)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 2:
				return base.Foreground(colorCyan).Bold(true)
			case col == 3:
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray)
		})
}
