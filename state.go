package musiforge

import "fmt"

// State of the flow within a single run.
type State int

const (
	// Idle is the state between runs.
	Idle State = iota
	// Dispatching means that ready blocks are submitted to workers.
	Dispatching
	// AwaitingCompletions means that flow waits for a job result.
	AwaitingCompletions
	// Done means that all blocks are evaluated and outputs are collected.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	case AwaitingCompletions:
		return "awaiting completions"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}
