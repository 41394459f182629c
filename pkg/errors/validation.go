package errors

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// MaxInputSize bounds the puzzle text accepted by the CLI and the API.
const MaxInputSize = 4 << 20

// ValidateInput validates a raw puzzle blob before it reaches the parsers.
//
// The rules are intentionally structural only:
//   - No empty input
//   - Maximum size of MaxInputSize bytes
//   - No null bytes or control characters other than tab, CR and LF
//
// Whether the text is a well-formed diagram is decided by the parsers.
func ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return New(ErrCodeInvalidInput, "input cannot be empty")
	}

	if len(input) > MaxInputSize {
		return New(ErrCodeInvalidInput, "input too large (max %d bytes)", MaxInputSize)
	}

	for i, r := range input {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "input contains control character %q at byte %d", r, i)
		}
	}

	return nil
}

// ValidatePolicy validates a crane policy name against the accepted set.
func ValidatePolicy(name string, valid map[string]bool) error {
	if name == "" {
		return New(ErrCodeInvalidPolicy, "policy cannot be empty")
	}
	if !valid[strings.ToLower(name)] {
		names := slices.Sorted(maps.Keys(valid))
		return New(ErrCodeInvalidPolicy, "invalid policy %q (must be one of: %s)", name, strings.Join(names, ", "))
	}
	return nil
}
