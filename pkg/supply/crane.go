package supply

import (
	"strings"

	"github.com/matzehuels/cratemover/pkg/errors"
)

// Policy names a crane.
type Policy string

const (
	// PolicySequential moves one crate at a time (the CrateMover 9000).
	PolicySequential Policy = "sequential"

	// PolicyBatch moves several crates at once, keeping their order (the
	// CrateMover 9001).
	PolicyBatch Policy = "batch"
)

// Policies lists the policies in the order they are reported.
var Policies = []Policy{PolicySequential, PolicyBatch}

// ValidPolicies is the set of accepted policy names.
var ValidPolicies = map[string]bool{
	string(PolicySequential): true,
	string(PolicyBatch):      true,
}

// ParsePolicy validates and normalizes a policy name. The crane model numbers
// "9000" and "9001" are accepted as aliases.
func ParsePolicy(name string) (Policy, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "9000", "cratemover9000":
		return PolicySequential, nil
	case "9001", "cratemover9001":
		return PolicyBatch, nil
	}
	if err := errors.ValidatePolicy(name, ValidPolicies); err != nil {
		return "", err
	}
	return Policy(strings.ToLower(name)), nil
}

// Crane applies a single move to the yard.
//
// Implementations must validate the move before mutating anything: when Move
// returns an error the stacks are unchanged.
type Crane interface {
	Policy() Policy
	Move(stacks Stacks, m Move) error
}

// CraneFor returns the crane implementing p.
func CraneFor(p Policy) (Crane, error) {
	switch p {
	case PolicySequential:
		return Sequential{}, nil
	case PolicyBatch:
		return Batch{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidPolicy, "no crane for policy %q", p)
	}
}

// Sequential lifts one crate at a time. A run of crates moved together ends
// up reversed on the destination.
type Sequential struct{}

// Policy returns PolicySequential.
func (Sequential) Policy() Policy { return PolicySequential }

// Move pops Count crates off From and pushes each onto To.
func (Sequential) Move(stacks Stacks, m Move) error {
	if err := checkMove(stacks, m); err != nil {
		return err
	}
	for range m.Count {
		from := stacks[m.From]
		top := from[len(from)-1]
		stacks[m.From] = from[:len(from)-1]
		stacks[m.To] = append(stacks[m.To], top)
	}
	return nil
}

// Batch lifts the top Count crates as one block and sets the block down on
// To in the same order.
type Batch struct{}

// Policy returns PolicyBatch.
func (Batch) Policy() Policy { return PolicyBatch }

// Move cuts the top Count crates off From and appends them to To.
func (Batch) Move(stacks Stacks, m Move) error {
	if err := checkMove(stacks, m); err != nil {
		return err
	}
	if m.Count == 0 || m.From == m.To {
		return nil
	}
	from := stacks[m.From]
	cut := len(from) - int(m.Count)
	stacks[m.To] = append(stacks[m.To], from[cut:]...)
	stacks[m.From] = from[:cut]
	return nil
}

// checkMove validates m against the current state of the yard.
func checkMove(stacks Stacks, m Move) error {
	if m.From < 0 || m.From >= len(stacks) {
		return errors.New(errors.ErrCodeOriginOutOfRange,
			"%s: origin stack %d does not exist (yard has %d stacks)", m, m.From+1, len(stacks))
	}
	if m.To < 0 || m.To >= len(stacks) {
		return errors.New(errors.ErrCodeDestinationOutOfRange,
			"%s: destination stack %d does not exist (yard has %d stacks)", m, m.To+1, len(stacks))
	}
	if have := len(stacks[m.From]); int64(m.Count) > int64(have) {
		return errors.New(errors.ErrCodeInsufficientUnits,
			"%s: stack %d holds only %d crates", m, m.From+1, have)
	}
	return nil
}
