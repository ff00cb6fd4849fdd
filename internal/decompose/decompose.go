// Package decompose provides the task decomposer agent: a multi-turn agent
// that turns a task description into either a clarifying question or a tree
// of subtasks.
package decompose

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/agent"
	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/prompts"
	"github.com/sd155/subtasker/internal/result"
	"github.com/sd155/subtasker/pkg/models"
)

const agentName = "decomposer"

// Outcome is the decision of the decomposer for one turn.
// It is either a Query or a Decomposed; consume it with Match.
type Outcome interface {
	isOutcome()
}

// Query means the decomposer needs more information from the user.
type Query struct {
	Question string
}

// Decomposed means the decomposition is ready.
type Decomposed struct {
	Subtasks []models.SubtaskNode
}

func (Query) isOutcome()      {}
func (Decomposed) isOutcome() {}

// Match calls the handler for the concrete outcome variant.
func Match[R any](o Outcome, onQuery func(Query) R, onDecomposed func(Decomposed) R) R {
	switch v := o.(type) {
	case Query:
		return onQuery(v)
	case Decomposed:
		return onDecomposed(v)
	default:
		panic(fmt.Sprintf("decompose: unhandled outcome %T", o))
	}
}

// Agent is the behavior the chat session needs from a decomposer.
type Agent interface {
	Request(ctx context.Context, prompt string) result.Result[*agent.Error, Outcome]
}

// Decomposer owns a growing conversation context with the model. Each call
// to Request continues the same conversation. Not safe for concurrent use;
// callers serialize turns.
type Decomposer struct {
	gateway llm.Gateway
	prompts prompts.Provider
	context *llm.Context
	logger  *zap.Logger
}

// New creates a Decomposer. A nil logger disables logging.
func New(gateway llm.Gateway, provider prompts.Provider, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{
		gateway: gateway,
		prompts: provider,
		context: llm.NewContext(),
		logger:  logger.With(zap.String("agent", agentName)),
	}
}

// Context returns a read-only view of the accumulated conversation.
func (d *Decomposer) Context() llm.ContextView {
	return d.context
}

// Request sends prompt as the next user turn and decodes the reply.
//
// The system instruction is added on the first call only. A successful reply
// is remembered in the context before decoding, so a reply that fails to
// decode still stays part of the conversation. A gateway failure leaves the
// context without a reply for this turn.
func (d *Decomposer) Request(ctx context.Context, prompt string) result.Result[*agent.Error, Outcome] {
	if d.context.Len() == 0 {
		d.context.Append(llm.SystemElement(d.prompts.Instruction(prompts.KindDecomposer)))
	}
	d.context.Append(llm.UserElement(prompt))

	d.logger.Debug("decomposer request", zap.Int("context_len", d.context.Len()))

	reply := result.MapFailure(d.gateway.Send(ctx, d.context.Elements()), agent.FromGateway(agentName))

	return result.Chain(reply, func(element llm.Element) result.Result[*agent.Error, Outcome] {
		d.context.Append(element)
		return result.Try(func() (Outcome, error) {
			return ParseResponse(element.Text)
		}, d.decodeFailure)
	})
}

func (d *Decomposer) decodeFailure(err error) *agent.Error {
	d.logger.Warn("decomposer reply rejected", zap.Error(err))
	return agent.NewError(agentName, err)
}
