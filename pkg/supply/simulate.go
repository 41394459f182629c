package supply

import (
	"context"
	"iter"

	"github.com/matzehuels/cratemover/pkg/errors"
)

// State is the lifecycle of a simulation run.
type State string

const (
	StateInitialized State = "initialized"
	StateApplying    State = "applying"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
)

// Snapshot is the yard right after a move was applied.
type Snapshot struct {
	Step   int    `json:"step"`
	Move   Move   `json:"move"`
	Stacks Stacks `json:"stacks"`
}

// Skip records an instruction a lenient run passed over.
type Skip struct {
	Line int   `json:"line"`
	Err  error `json:"-"`
}

// SimulateOptions controls a run.
type SimulateOptions struct {
	// Lenient skips malformed or impossible instructions instead of failing.
	// Errors that are not tied to one instruction still fail the run.
	Lenient bool

	// Trace records a Snapshot after every applied move.
	Trace bool

	// OnMove, if set, is called after every applied move.
	OnMove func(step int, m Move)

	// OnSkip, if set, is called for every instruction a lenient run skips.
	OnSkip func(line int, err error)
}

// Run is the outcome of folding moves over a yard with one crane.
type Run struct {
	Policy  Policy
	Stacks  Stacks
	State   State
	Applied int
	Skipped []Skip
	Trace   []Snapshot
	Err     error
}

// Answer returns the top crate of every stack.
func (r *Run) Answer() string { return r.Stacks.Tops() }

// Simulate applies moves to stacks in order, in place, with crane c.
//
// The first invalid instruction stops the run with StateFailed and is
// returned wrapped in a *LineError; the stacks keep every move applied
// before it. With opts.Lenient the instruction is recorded in Run.Skipped
// and the run continues. Cancelling ctx stops the run between moves.
func Simulate(ctx context.Context, c Crane, stacks Stacks, moves iter.Seq2[Move, error], opts SimulateOptions) (*Run, error) {
	run := &Run{
		Policy: c.Policy(),
		Stacks: stacks,
		State:  StateInitialized,
	}

	fail := func(err error) (*Run, error) {
		run.State = StateFailed
		run.Err = err
		return run, err
	}

	run.State = StateApplying
	for m, err := range moves {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		if err == nil {
			err = c.Move(stacks, m)
			if err != nil && m.Line > 0 {
				err = &LineError{Line: m.Line, Err: err}
			}
		}
		if err != nil {
			if opts.Lenient && errors.IsInstruction(err) {
				run.Skipped = append(run.Skipped, Skip{Line: m.Line, Err: err})
				if opts.OnSkip != nil {
					opts.OnSkip(m.Line, err)
				}
				continue
			}
			return fail(err)
		}

		run.Applied++
		if opts.OnMove != nil {
			opts.OnMove(run.Applied, m)
		}
		if opts.Trace {
			run.Trace = append(run.Trace, Snapshot{Step: run.Applied, Move: m, Stacks: stacks.Clone()})
		}
	}

	run.State = StateComplete
	return run, nil
}

// Apply is Simulate over a slice of moves with default options.
func Apply(c Crane, stacks Stacks, moves []Move) (Stacks, error) {
	_, err := Simulate(context.Background(), c, stacks, SliceMoves(moves), SimulateOptions{})
	return stacks, err
}
