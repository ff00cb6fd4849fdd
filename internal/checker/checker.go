// Package checker provides the decomposition checker agent. It is stateless:
// every request is a fresh two-element conversation.
package checker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/agent"
	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/prompts"
	"github.com/sd155/subtasker/internal/result"
	"github.com/sd155/subtasker/pkg/models"
)

const agentName = "checker"

// Verdict is the checker's judgement of a decomposition.
// It is either Valid or Invalid; consume it with Match.
type Verdict interface {
	isVerdict()
}

// Valid means the decomposition passed every check.
type Valid struct{}

// Invalid carries the first problem found.
type Invalid struct {
	Reason string
}

func (Valid) isVerdict()   {}
func (Invalid) isVerdict() {}

// Match calls the handler for the concrete verdict variant.
func Match[R any](v Verdict, onValid func(Valid) R, onInvalid func(Invalid) R) R {
	switch x := v.(type) {
	case Valid:
		return onValid(x)
	case Invalid:
		return onInvalid(x)
	default:
		panic(fmt.Sprintf("checker: unhandled verdict %T", v))
	}
}

// Agent is the behavior the chat session needs from a checker.
type Agent interface {
	Request(ctx context.Context, description string, subtasks []models.SubtaskNode) result.Result[*agent.Error, Verdict]
}

// Input is the user message sent to the checker.
type Input struct {
	TaskDescription string               `json:"task_description"`
	Decomposition   []models.SubtaskNode `json:"decomposition"`
}

// Checker validates decompositions. Safe for concurrent use as long as the
// gateway and prompt provider are.
type Checker struct {
	gateway llm.Gateway
	prompts prompts.Provider
	logger  *zap.Logger
}

// New creates a Checker. A nil logger disables logging.
func New(gateway llm.Gateway, provider prompts.Provider, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		gateway: gateway,
		prompts: provider,
		logger:  logger.With(zap.String("agent", agentName)),
	}
}

// Request asks the model whether subtasks are a valid decomposition of
// description.
func (c *Checker) Request(ctx context.Context, description string, subtasks []models.SubtaskNode) result.Result[*agent.Error, Verdict] {
	input, err := EncodeInput(description, subtasks)
	if err != nil {
		return result.Failure[*agent.Error, Verdict](agent.NewError(agentName, err))
	}

	elements := []llm.Element{
		llm.SystemElement(c.prompts.Instruction(prompts.KindChecker)),
		llm.UserElement(input),
	}

	c.logger.Debug("checker request", zap.Int("subtasks", models.Count(subtasks)))

	reply := result.MapFailure(c.gateway.Send(ctx, elements), agent.FromGateway(agentName))

	return result.Chain(reply, func(element llm.Element) result.Result[*agent.Error, Verdict] {
		return result.Try(func() (Verdict, error) {
			return ParseResponse(element.Text)
		}, c.decodeFailure)
	})
}

func (c *Checker) decodeFailure(err error) *agent.Error {
	c.logger.Warn("checker reply rejected", zap.Error(err))
	return agent.NewError(agentName, err)
}

// EncodeInput builds the checker user message. Subtasks keep their order and
// nesting; a nil list encodes as an empty array.
func EncodeInput(description string, subtasks []models.SubtaskNode) (string, error) {
	if subtasks == nil {
		subtasks = []models.SubtaskNode{}
	}
	data, err := json.Marshal(Input{TaskDescription: description, Decomposition: normalize(subtasks)})
	if err != nil {
		return "", fmt.Errorf("encode checker input: %w", err)
	}
	return string(data), nil
}

// normalize replaces nil child lists with empty ones so every node encodes
// "subtasks": [].
func normalize(nodes []models.SubtaskNode) []models.SubtaskNode {
	out := make([]models.SubtaskNode, len(nodes))
	for i, n := range nodes {
		n.Subtasks = normalize(n.Subtasks)
		out[i] = n
	}
	return out
}
