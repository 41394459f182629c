package supply

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/cratemover/pkg/errors"
)

// ColumnPitch is the horizontal distance, in runes, between two stacks in a
// diagram. The crate label of stack i sits at offset i*ColumnPitch+1.
const ColumnPitch = 4

// sectionSeparator divides the diagram from the instructions.
const sectionSeparator = "\n\n"

// HeaderMode selects how the stack count is read from the index row.
type HeaderMode string

const (
	// HeaderToken reads the whole trailing number of the index row, so
	// diagrams with ten or more stacks parse correctly. This is the default.
	HeaderToken HeaderMode = "token"

	// HeaderDigit reads only the last digit of the index row. A yard of
	// twelve stacks is read as two. Kept for compatibility with inputs that
	// were solved that way.
	HeaderDigit HeaderMode = "digit"
)

// ValidHeaderModes is the set of accepted header modes.
var ValidHeaderModes = map[string]bool{
	string(HeaderToken): true,
	string(HeaderDigit): true,
}

// SplitSections normalizes line endings and splits input at the first blank
// line into the diagram and the instructions. The instructions are returned
// untouched.
func SplitSections(input string) (diagram, instructions string, err error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	diagram, instructions, ok := strings.Cut(input, sectionSeparator)
	if !ok {
		return "", "", errors.New(errors.ErrCodeSeparatorMissing,
			"no blank line between the crate diagram and the instructions")
	}
	return diagram, instructions, nil
}

// ParseDiagram splits input into its two sections and builds the initial
// stacks from the diagram. It returns the stacks together with the untouched
// instruction text.
func ParseDiagram(input string, mode HeaderMode) (Stacks, string, error) {
	diagram, instructions, err := SplitSections(input)
	if err != nil {
		return nil, "", err
	}
	stacks, err := ParseStacks(diagram, mode)
	if err != nil {
		return nil, "", err
	}
	return stacks, instructions, nil
}

// ParseStacks builds stacks from a diagram section alone. The last line must
// be the index row; every other line is a row of crates, top row first.
func ParseStacks(diagram string, mode HeaderMode) (Stacks, error) {
	lines := strings.Split(strings.TrimRight(diagram, "\n"), "\n")
	header := lines[len(lines)-1]
	rows := lines[:len(lines)-1]

	n, err := stackCount(header, mode)
	if err != nil {
		return nil, err
	}

	grid := make([][]rune, len(rows))
	for i, row := range rows {
		grid[i] = []rune(row)
	}

	stacks := make(Stacks, n)
	for i := range stacks {
		offset := i*ColumnPitch + 1
		stack := Stack{}
		// The lowest crate is on the last row.
		for r := len(grid) - 1; r >= 0; r-- {
			if offset < len(grid[r]) && grid[r][offset] != ' ' {
				stack = append(stack, Crate(grid[r][offset]))
			}
		}
		stacks[i] = stack
	}
	return stacks, nil
}

// stackCount reads the number of stacks from the end of the index row.
func stackCount(header string, mode HeaderMode) (int, error) {
	trimmed := strings.TrimRightFunc(header, unicode.IsSpace)
	if trimmed == "" {
		return 0, errors.New(errors.ErrCodeMalformedHeader, "index row is empty")
	}

	var raw string
	switch mode {
	case HeaderDigit:
		r := []rune(trimmed)
		raw = string(r[len(r)-1])
	case HeaderToken, "":
		fields := strings.Fields(trimmed)
		raw = fields[len(fields)-1]
	default:
		return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown header mode %q", mode)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeMalformedHeader, err, "index row does not end in a stack number: %q", header)
	}
	if n < 1 {
		return 0, errors.New(errors.ErrCodeMalformedHeader, "index row declares no stacks: %q", header)
	}
	return n, nil
}
