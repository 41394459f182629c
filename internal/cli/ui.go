package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cratemover/pkg/supply"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleAnswer for the top-crate answer.
	StyleAnswer = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCrate      = lipgloss.NewStyle().Foreground(colorWhite)
	styleCrateMoved = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleIndex      = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints run statistics on a single line.
func printStats(w io.Writer, policy supply.Policy, stacks, crates, moves int, cached bool) {
	parts := []string{string(policy)}
	parts = append(parts, fmt.Sprintf("%d stacks", stacks))
	parts = append(parts, fmt.Sprintf("%d crates", crates))
	parts = append(parts, fmt.Sprintf("%d moves", moves))

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}

// =============================================================================
// Yard Rendering
// =============================================================================

// renderYard draws stacks the way puzzle diagrams are written: one [X] cell per
// crate, top row first, with a 1-based index row underneath. If mark is
// non-nil, the crates it just placed on its destination are highlighted.
func renderYard(stacks supply.Stacks, mark *supply.Move) string {
	height := 0
	for _, s := range stacks {
		height = max(height, len(s))
	}

	marked := func(i, level int) bool {
		if mark == nil || i != mark.To {
			return false
		}
		return level >= len(stacks[i])-int(mark.Count)
	}

	var b strings.Builder
	for level := height - 1; level >= 0; level-- {
		cells := make([]string, len(stacks))
		for i, s := range stacks {
			if level >= len(s) {
				cells[i] = "   "
				continue
			}
			style := styleCrate
			if marked(i, level) {
				style = styleCrateMoved
			}
			cells[i] = style.Render("[" + s[level].String() + "]")
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteString("\n")
	}

	labels := make([]string, len(stacks))
	for i := range stacks {
		labels[i] = fmt.Sprintf(" %-2d", i+1)
	}
	b.WriteString(styleIndex.Render(strings.TrimRight(strings.Join(labels, " "), " ")))
	return b.String()
}
