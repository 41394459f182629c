package supply

import (
	"encoding/json"
	"slices"
	"strings"
)

// Crate is a single labelled unit. The label is whatever rune the diagram
// shows between the brackets.
type Crate rune

// String returns the crate label.
func (c Crate) String() string { return string(c) }

// Stack is an ordered pile of crates. Index 0 is the bottom; the last element
// is the top, the next crate a crane will lift.
type Stack []Crate

// Top returns the topmost crate, or false if the stack is empty.
func (s Stack) Top() (Crate, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// String returns the labels bottom to top, e.g. "ZN".
func (s Stack) String() string {
	var b strings.Builder
	for _, c := range s {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// MarshalJSON encodes the stack as a string of labels, bottom to top.
func (s Stack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a stack written by MarshalJSON.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var labels string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*s = StackOf(labels)
	return nil
}

// StackOf builds a stack from labels given bottom to top.
func StackOf(labels string) Stack {
	st := Stack{}
	for _, r := range labels {
		st = append(st, Crate(r))
	}
	return st
}

// StacksOf builds a yard from one label string per stack, bottom to top.
func StacksOf(stacks ...string) Stacks {
	out := make(Stacks, len(stacks))
	for i, labels := range stacks {
		out[i] = StackOf(labels)
	}
	return out
}

// Stacks is the yard: a fixed number of stacks addressed by 0-based index.
// Its length is set by the diagram and never changes during a run.
type Stacks []Stack

// Len returns the number of stacks.
func (s Stacks) Len() int { return len(s) }

// Height returns the number of crates on stack i, or -1 if i is out of range.
func (s Stacks) Height(i int) int {
	if i < 0 || i >= len(s) {
		return -1
	}
	return len(s[i])
}

// Total returns the number of crates across all stacks.
func (s Stacks) Total() int {
	n := 0
	for _, st := range s {
		n += len(st)
	}
	return n
}

// Clone returns a deep copy. Runs mutate their stacks in place, so callers
// that need the initial state afterwards must clone first.
func (s Stacks) Clone() Stacks {
	out := make(Stacks, len(s))
	for i, st := range s {
		out[i] = slices.Clone(st)
		if out[i] == nil {
			out[i] = Stack{}
		}
	}
	return out
}

// Equal reports whether both yards hold the same crates in the same places.
func (s Stacks) Equal(other Stacks) bool {
	return slices.EqualFunc(s, other, func(a, b Stack) bool {
		return slices.Equal(a, b)
	})
}

// Tops returns the top crate of every stack in index order. Empty stacks
// contribute nothing, so the result may be shorter than Len.
func (s Stacks) Tops() string {
	var b strings.Builder
	for _, st := range s {
		if c, ok := st.Top(); ok {
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

// Strings returns each stack rendered bottom to top.
func (s Stacks) Strings() []string {
	out := make([]string, len(s))
	for i, st := range s {
		out[i] = st.String()
	}
	return out
}
