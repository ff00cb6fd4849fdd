// Package agent contains what the decomposer and checker agents share: the
// uniform agent failure and the decoding of discriminated JSON replies.
package agent

import (
	"fmt"

	"github.com/sd155/subtasker/internal/llm"
)

// Error is the single failure kind returned by an agent. It covers both
// gateway failures and replies that cannot be decoded; callers do not
// distinguish between them.
type Error struct {
	// Agent names the agent that failed ("decomposer", "checker").
	Agent string
	cause error
}

// NewError creates an agent error with the given cause.
func NewError(agent string, cause error) *Error {
	return &Error{Agent: agent, cause: cause}
}

// FromGateway returns a function that converts a gateway failure into an
// agent error, for use with result.Chain and result.Fold.
func FromGateway(agent string) func(*llm.GatewayError) *Error {
	return func(err *llm.GatewayError) *Error {
		return NewError(agent, err)
	}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s agent failed: %v", e.Agent, e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}
