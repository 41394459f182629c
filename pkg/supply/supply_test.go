package supply

// sampleDiagram is the yard used throughout the tests.
const sampleDiagram = "    [D]    \n[N] [C]    \n[Z] [M] [P]\n 1   2   3 \n"

const sampleMoves = "move 1 from 2 to 1\nmove 3 from 1 to 3\nmove 2 from 2 to 1\nmove 1 from 1 to 2\n"

const sampleInput = sampleDiagram + "\n" + sampleMoves
