package llm

import "fmt"

// GatewayError is the single failure kind returned by the gateway.
// Timeouts, HTTP errors and malformed bodies are not
// distinguished; the cause is kept for logging only.
type GatewayError struct {
	cause error
}

// NewGatewayError wraps cause in a GatewayError.
func NewGatewayError(cause error) *GatewayError {
	return &GatewayError{cause: cause}
}

// Error implements error.
func (e *GatewayError) Error() string {
	if e == nil || e.cause == nil {
		return "llm gateway request failed"
	}
	return fmt.Sprintf("llm gateway request failed: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// UnknownRoleError reports a response message whose role is not one of
// system, user or assistant. The gateway treats it as a defect and panics
// with this value instead of returning a GatewayError.
type UnknownRoleError struct {
	Role string
}

// Error implements error.
func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("message has illegal role %q", e.Role)
}
