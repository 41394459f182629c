package supply

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/cratemover/pkg/errors"
)

func TestSplitSections(t *testing.T) {
	diagram, instructions, err := SplitSections(sampleInput)
	if err != nil {
		t.Fatalf("SplitSections() error: %v", err)
	}
	if want := strings.TrimSuffix(sampleDiagram, "\n"); diagram != want {
		t.Errorf("diagram = %q, want %q", diagram, want)
	}
	if instructions != sampleMoves {
		t.Errorf("instructions = %q, want %q", instructions, sampleMoves)
	}
}

func TestSplitSectionsCRLF(t *testing.T) {
	input := strings.ReplaceAll(sampleInput, "\n", "\r\n")
	_, instructions, err := SplitSections(input)
	if err != nil {
		t.Fatalf("SplitSections() error: %v", err)
	}
	if instructions != sampleMoves {
		t.Errorf("instructions = %q, want %q", instructions, sampleMoves)
	}
}

func TestSplitSectionsMissingSeparator(t *testing.T) {
	_, _, err := SplitSections(sampleDiagram + sampleMoves)
	if !errors.Is(err, errors.ErrCodeSeparatorMissing) {
		t.Errorf("SplitSections() error = %v, want %s", err, errors.ErrCodeSeparatorMissing)
	}
}

func TestParseDiagramSample(t *testing.T) {
	stacks, rest, err := ParseDiagram(sampleInput, HeaderToken)
	if err != nil {
		t.Fatalf("ParseDiagram() error: %v", err)
	}
	if rest != sampleMoves {
		t.Errorf("rest = %q, want %q", rest, sampleMoves)
	}
	if got, want := stacks.Strings(), []string{"ZN", "MCD", "P"}; !slices.Equal(got, want) {
		t.Errorf("stacks = %q, want %q", got, want)
	}
}

func TestParseStacks(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
		want    []string
	}{
		// Trailing spaces are often stripped by editors.
		{"short rows", "    [D]\n[N] [C]\n[Z] [M] [P]\n 1   2   3", []string{"ZN", "MCD", "P"}},
		{"empty stack", "[A]     [C]\n 1   2   3 ", []string{"A", "", "C"}},
		{"header only", " 1   2 ", []string{"", ""}},
		{"unicode labels", "[é] [ß]\n 1   2 ", []string{"é", "ß"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stacks, err := ParseStacks(tt.diagram, HeaderToken)
			if err != nil {
				t.Fatalf("ParseStacks() error: %v", err)
			}
			if got := stacks.Strings(); !slices.Equal(got, tt.want) {
				t.Errorf("ParseStacks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStacksTenOrMore(t *testing.T) {
	var row, header strings.Builder
	for i := range 12 {
		if i > 0 {
			row.WriteByte(' ')
			header.WriteByte(' ')
		}
		row.WriteString("[" + string(rune('A'+i)) + "]")
		if i+1 < 10 {
			header.WriteString(" " + string(rune('1'+i)) + " ")
		} else {
			header.WriteString(" 1" + string(rune('0'+i+1-10)))
		}
	}
	diagram := row.String() + "\n" + header.String()

	stacks, err := ParseStacks(diagram, HeaderToken)
	if err != nil {
		t.Fatalf("ParseStacks(token) error: %v", err)
	}
	if stacks.Len() != 12 || stacks.Tops() != "ABCDEFGHIJKL" {
		t.Errorf("token mode: %d stacks, tops %q", stacks.Len(), stacks.Tops())
	}

	// Digit mode reads only the trailing digit of "12".
	legacy, err := ParseStacks(diagram, HeaderDigit)
	if err != nil {
		t.Fatalf("ParseStacks(digit) error: %v", err)
	}
	if legacy.Len() != 2 || legacy.Tops() != "AB" {
		t.Errorf("digit mode: %d stacks, tops %q, want 2 stacks, tops \"AB\"", legacy.Len(), legacy.Tops())
	}
}

func TestParseStacksMalformedHeader(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
		mode    HeaderMode
	}{
		{"empty", "", HeaderToken},
		{"blank index row", "[A]\n   ", HeaderToken},
		{"letters", "[A]\n a ", HeaderToken},
		{"crate row as header", "[A] [B]", HeaderToken},
		{"zero stacks", "[A]\n 0 ", HeaderToken},
		{"digit mode letters", "[A]\n 1a ", HeaderDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStacks(tt.diagram, tt.mode)
			if !errors.Is(err, errors.ErrCodeMalformedHeader) {
				t.Errorf("ParseStacks(%q) error = %v, want %s", tt.diagram, err, errors.ErrCodeMalformedHeader)
			}
		})
	}
}

func TestParseStacksUnknownMode(t *testing.T) {
	_, err := ParseStacks(sampleDiagram, HeaderMode("roman"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("ParseStacks() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}
