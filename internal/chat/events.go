package chat

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of session event.
type EventType string

const (
	// EventLogChanged indicates the visible log was modified.
	EventLogChanged EventType = "log_changed"
	// EventTurnStarted indicates a queued prompt started processing.
	EventTurnStarted EventType = "turn_started"
	// EventTurnState indicates the running turn moved to a new state.
	EventTurnState EventType = "turn_state"
	// EventTurnDone indicates a turn reached a terminal state.
	EventTurnDone EventType = "turn_done"
	// EventFatal indicates the session hit a defect and stopped.
	EventFatal EventType = "fatal"
)

// Event is emitted by a Session to its subscribers (TUI, REPL).
// Events are notifications; the log itself is read with Session.Messages.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TurnID identifies the turn, if applicable.
	TurnID uuid.UUID
	// Prompt is the user text of the turn, for turn events.
	Prompt string
	// State is the new turn state, for turn_state and turn_done events.
	State TurnState
	// LogLen is the log length after the change, for log_changed events.
	LogLen int
	// Error contains details for fatal events.
	Error error
	// Duration is the elapsed turn time, for turn_done events.
	Duration time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
