package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

// replayCommand creates the replay command.
func (c *CLI) replayCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Step through a simulation move by move",
		Long: `Run the instructions with tracing enabled and open an interactive viewer
that steps through the stacks after every move.

Keys: ←/→ (h/l) step, home/end (g/G) jump, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			opts.Trace = true
			res, err := runner.Execute(ctx, input, opts)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newReplayModel(res),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd, true)
	return cmd
}

// =============================================================================
// ReplayModel - Interactive simulation viewer
// =============================================================================

// ReplayModel is the bubbletea model for stepping through a traced run.
// Step 0 shows the initial stacks; step i shows the stacks after move i.
type ReplayModel struct {
	Policy  supply.Policy
	Answer  string
	Initial supply.Stacks
	Trace   []supply.Snapshot
	Skipped []int
	Step    int
}

// newReplayModel creates a replay model positioned at the initial stacks.
func newReplayModel(res *pipeline.Result) ReplayModel {
	return ReplayModel{
		Policy:  res.Policy,
		Answer:  res.Answer,
		Initial: res.Initial,
		Trace:   res.Trace,
		Skipped: res.Skipped,
	}
}

// Init implements tea.Model. The viewer waits for the first key.
func (m ReplayModel) Init() tea.Cmd {
	return nil
}

// Update moves between steps on arrow and vi keys and quits on q, esc or ctrl+c.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", " ", "n":
			if m.Step < len(m.Trace) {
				m.Step++
			}
		case "left", "h", "p":
			if m.Step > 0 {
				m.Step--
			}
		case "home", "g":
			m.Step = 0
		case "end", "G":
			m.Step = len(m.Trace)
		}
	}
	return m, nil
}

// Stacks returns the stacks shown at the current step.
func (m ReplayModel) Stacks() supply.Stacks {
	if m.Step == 0 {
		return m.Initial
	}
	return m.Trace[m.Step-1].Stacks
}

// View renders the stacks at the current step with their tops.
func (m ReplayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Replay · %s", m.Policy)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ step  g/G first/last  q quit"))
	b.WriteString("\n\n")

	var mark *supply.Move
	status := "initial stacks"
	if m.Step > 0 {
		snap := m.Trace[m.Step-1]
		mark = &snap.Move
		status = snap.Move.String()
	}
	b.WriteString(StyleValue.Render(fmt.Sprintf("step %d/%d", m.Step, len(m.Trace))))
	b.WriteString(StyleDim.Render(" · " + status))
	b.WriteString("\n\n")

	b.WriteString(renderYard(m.Stacks(), mark))
	b.WriteString("\n\n")

	b.WriteString(StyleDim.Render("tops "))
	b.WriteString(StyleAnswer.Render(m.Stacks().Tops()))
	if m.Step == len(m.Trace) {
		b.WriteString(StyleDim.Render("  (final)"))
	}
	if n := len(m.Skipped); n > 0 {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d %s skipped", n, plural(n, "instruction", "instructions"))))
	}
	b.WriteString("\n")
	return b.String()
}
