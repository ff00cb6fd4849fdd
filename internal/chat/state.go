package chat

// TurnState is the progress of a single prompt through the agents.
type TurnState int

const (
	// StateIdle means no turn is running.
	StateIdle TurnState = iota
	// StateAwaitingDecomposition means the decomposer is working.
	StateAwaitingDecomposition
	// StateQueryAnswered means the decomposer asked a question; the next
	// prompt continues the same conversation.
	StateQueryAnswered
	// StateAwaitingValidation means the checker is working.
	StateAwaitingValidation
	// StateDone means the turn ended with a checked result.
	StateDone
	// StateErrorTerminal means an agent failed during the turn.
	StateErrorTerminal
)

var stateNames = map[TurnState]string{
	StateIdle:                  "idle",
	StateAwaitingDecomposition: "awaiting_decomposition",
	StateQueryAnswered:         "query_answered",
	StateAwaitingValidation:    "awaiting_validation",
	StateDone:                  "done",
	StateErrorTerminal:         "error",
}

// String returns the snake_case name of the state.
func (s TurnState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state ends a turn.
func (s TurnState) Terminal() bool {
	return s == StateQueryAnswered || s == StateDone || s == StateErrorTerminal
}
