// Package llmtest provides a scripted llm.Gateway for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/result"
)

// Reply is one scripted gateway answer.
type Reply struct {
	// Text is returned as an assistant element when Err is nil.
	Text string
	// Role overrides the reply role; empty means "assistant". An unknown
	// role makes Send panic with *llm.UnknownRoleError, like the real client.
	Role string
	// Err makes the call fail with a GatewayError wrapping it.
	Err error
}

// OK returns a successful reply with the given assistant text.
func OK(text string) Reply {
	return Reply{Text: text}
}

// Fail returns a failing reply.
func Fail(reason string) Reply {
	return Reply{Err: errors.New(reason)}
}

// Gateway replays scripted replies in order and records every call.
// Once the script is exhausted every call fails.
type Gateway struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]llm.Element
	block   chan struct{}
}

// NewGateway creates a gateway with the given script.
func NewGateway(replies ...Reply) *Gateway {
	return &Gateway{replies: replies}
}

// BlockUntil makes every Send wait until release is closed.
func (g *Gateway) BlockUntil(release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block = release
}

// Push appends replies to the script.
func (g *Gateway) Push(replies ...Reply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
}

// Send implements llm.Gateway.
func (g *Gateway) Send(ctx context.Context, elements []llm.Element) result.Result[*llm.GatewayError, llm.Element] {
	g.mu.Lock()
	snapshot := make([]llm.Element, len(elements))
	copy(snapshot, elements)
	g.calls = append(g.calls, snapshot)
	block := g.block
	var reply Reply
	exhausted := len(g.replies) == 0
	if !exhausted {
		reply = g.replies[0]
		g.replies = g.replies[1:]
	}
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	if exhausted {
		return fail(errors.New("llmtest: no scripted reply"))
	}
	if reply.Err != nil {
		return fail(reply.Err)
	}

	roleName := reply.Role
	if roleName == "" {
		roleName = "assistant"
	}
	role, err := llm.ParseRole(roleName)
	if err != nil {
		panic(err)
	}
	return result.Success[*llm.GatewayError](llm.Element{Role: role, Text: reply.Text})
}

// Calls returns the contexts received so far, one per call.
func (g *Gateway) Calls() [][]llm.Element {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]llm.Element, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns the number of Send calls.
func (g *Gateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func fail(cause error) result.Result[*llm.GatewayError, llm.Element] {
	return result.Failure[*llm.GatewayError, llm.Element](llm.NewGatewayError(cause))
}
