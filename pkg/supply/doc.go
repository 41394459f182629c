// Package supply models the crate yard: stacks of labelled crates, the move
// instructions a crane operator follows, and the two cranes that carry them
// out.
//
// # Overview
//
// A puzzle input has two sections separated by a blank line. The first is a
// drawing of the stacks, one crate per bracketed letter at a fixed four-column
// pitch, finished by a row of 1-based stack numbers:
//
//	    [D]
//	[N] [C]
//	[Z] [M] [P]
//	 1   2   3
//
// The second is a list of instructions, one per line:
//
//	move 1 from 2 to 1
//
// [ParseDiagram] turns the first section into [Stacks] (bottom to top),
// [Moves] and [ParseMoves] turn the second into [Move] values, a [Crane]
// applies them, and [Stacks.Tops] reads the answer off the top of every stack.
//
// # Cranes
//
// Two cranes are available, selected by [Policy]:
//
//   - [Sequential] lifts one crate at a time, so a relocated run of crates
//     arrives in reverse order.
//   - [Batch] lifts the whole run at once and sets it down in the same order.
//
// Both validate a move before touching any stack, so a rejected move leaves
// the yard exactly as it was.
//
// # Simulation
//
// [Simulate] folds a sequence of moves over the stacks with one crane and
// stops at the first invalid move. Set [SimulateOptions.Lenient] to skip
// invalid moves instead, and [SimulateOptions.Trace] to record a [Snapshot]
// after every applied move.
//
//	stacks, rest, err := supply.ParseDiagram(input, supply.HeaderToken)
//	moves := supply.Moves(rest)
//	run, err := supply.Simulate(ctx, supply.Batch{}, stacks, moves, supply.SimulateOptions{})
//	fmt.Println(run.Stacks.Tops()) // MCD
package supply
