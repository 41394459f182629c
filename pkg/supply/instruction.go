package supply

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/cratemover/pkg/errors"
)

// instructionPattern matches exactly one move instruction.
var instructionPattern = regexp.MustCompile(`^move (\d+) from (\d+) to (\d+)$`)

// Move is one crane instruction with 0-based stack indices.
//
// Line is the 1-based line number inside the instruction section, or 0 when
// the move was built in code.
type Move struct {
	Count uint32 `json:"count"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Line  int    `json:"line,omitempty"`
}

// String renders the move the way it appears in puzzle input (1-based).
func (m Move) String() string {
	return fmt.Sprintf("move %d from %d to %d", m.Count, m.From+1, m.To+1)
}

// ParseMove parses a single instruction line. Leading and trailing whitespace
// is ignored; anything else must match "move <n> from <a> to <b>" exactly.
func ParseMove(line string) (Move, error) {
	groups := instructionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if groups == nil {
		return Move{}, errors.New(errors.ErrCodeInstructionSyntax, "not a move instruction: %q", line)
	}

	count, err := strconv.ParseUint(groups[1], 10, 32)
	if err != nil {
		return Move{}, numberError(err, "count", groups[1])
	}
	from, err := strconv.Atoi(groups[2])
	if err != nil {
		return Move{}, numberError(err, "origin", groups[2])
	}
	to, err := strconv.Atoi(groups[3])
	if err != nil {
		return Move{}, numberError(err, "destination", groups[3])
	}

	return Move{Count: uint32(count), From: from - 1, To: to - 1}, nil
}

func numberError(err error, field, raw string) error {
	if stderrors.Is(err, strconv.ErrRange) {
		return errors.Wrap(errors.ErrCodeNumericOverflow, err, "%s %s does not fit", field, raw)
	}
	return errors.Wrap(errors.ErrCodeInstructionSyntax, err, "%s %q is not a number", field, raw)
}

// LineError ties a parse or move error to its instruction line.
type LineError struct {
	Line int
	Err  error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("instruction line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *LineError) Unwrap() error { return e.Err }

// ReadMoves returns a lazy sequence of moves read line by line from r.
// Blank lines are skipped. A malformed line yields a *LineError and the
// sequence carries on, so the consumer decides whether to stop.
func ReadMoves(r io.Reader) iter.Seq2[Move, error] {
	return func(yield func(Move, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), errors.MaxInputSize)
		line := 0
		for sc.Scan() {
			line++
			text := sc.Text()
			if strings.TrimSpace(text) == "" {
				continue
			}
			m, err := ParseMove(text)
			if err != nil {
				if !yield(Move{Line: line}, &LineError{Line: line, Err: err}) {
					return
				}
				continue
			}
			m.Line = line
			if !yield(m, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Move{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read instructions"))
		}
	}
}

// Moves is ReadMoves over an instruction section held in memory.
func Moves(instructions string) iter.Seq2[Move, error] {
	return ReadMoves(strings.NewReader(instructions))
}

// ParseMoves parses every instruction eagerly and fails on the first bad line.
func ParseMoves(instructions string) ([]Move, error) {
	var moves []Move
	for m, err := range Moves(instructions) {
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// SliceMoves adapts a slice of moves to the sequence form Simulate consumes.
func SliceMoves(moves []Move) iter.Seq2[Move, error] {
	return func(yield func(Move, error) bool) {
		for _, m := range moves {
			if !yield(m, nil) {
				return
			}
		}
	}
}
