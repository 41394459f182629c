package supply_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/cratemover/pkg/supply"
)

const input = `    [D]    
[N] [C]    
[Z] [M] [P]
 1   2   3 

move 1 from 2 to 1
move 3 from 1 to 3
move 2 from 2 to 1
move 1 from 1 to 2
`

func ExampleParseDiagram() {
	stacks, _, err := supply.ParseDiagram(input, supply.HeaderToken)
	if err != nil {
		panic(err)
	}
	fmt.Println(stacks.Strings())
	// Output: [ZN MCD P]
}

func ExampleSimulate() {
	for _, policy := range supply.Policies {
		stacks, rest, _ := supply.ParseDiagram(input, supply.HeaderToken)
		crane, _ := supply.CraneFor(policy)
		run, err := supply.Simulate(context.Background(), crane, stacks, supply.Moves(rest), supply.SimulateOptions{})
		if err != nil {
			panic(err)
		}
		fmt.Println(policy, run.Stacks.Strings(), run.Answer())
	}
	// Output:
	// sequential [C M PDNZ] CMZ
	// batch [M C PZND] MCD
}

func ExampleBatch_Move() {
	stacks := supply.StacksOf("ABC", "")
	_ = supply.Batch{}.Move(stacks, supply.Move{Count: 2, From: 0, To: 1})
	fmt.Println(stacks.Strings())
	// Output: [A BC]
}
