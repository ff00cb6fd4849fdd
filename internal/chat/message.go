// Package chat implements the conversation shown to the user: the visible
// message log and the session that runs one decomposition turn per prompt.
package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sd155/subtasker/pkg/models"
)

const (
	// DescriptionValid is the result description of a decomposition the
	// checker accepted.
	DescriptionValid = "decomposition checked and valid"
	// DescriptionInvalidPrefix precedes the checker's reason for a rejected
	// decomposition.
	DescriptionInvalidPrefix = "invalid decomposition: "
)

// Message is one entry of the visible log. The concrete types are
// UserMessage, Typing, AgentQuestion, AgentHandoff, AgentResult and
// AgentError; consume them with MatchMessage.
type Message interface {
	// ID uniquely identifies the entry within the process.
	ID() uuid.UUID
	// Time is when the entry was created.
	Time() time.Time
	isMessage()
}

// entry carries the identity shared by every message.
type entry struct {
	id uuid.UUID
	at time.Time
}

func newEntry() entry {
	return entry{id: uuid.New(), at: time.Now()}
}

// ID implements Message.
func (e entry) ID() uuid.UUID { return e.id }

// Time implements Message.
func (e entry) Time() time.Time { return e.at }

func (entry) isMessage() {}

// UserMessage is a prompt the user submitted.
type UserMessage struct {
	entry
	Text string
}

// Typing is the transient placeholder shown while an agent is working.
type Typing struct {
	entry
}

// AgentQuestion is a clarifying question from the decomposer.
type AgentQuestion struct {
	entry
	Question string
}

// AgentHandoff marks that the decomposition was passed to the checker.
type AgentHandoff struct {
	entry
}

// AgentResult is the checked decomposition.
type AgentResult struct {
	entry
	Description string
	Subtasks    []models.SubtaskNode
}

// AgentError reports that an agent failed. The cause is not shown.
type AgentError struct {
	entry
}

// NewUserMessage creates a UserMessage.
func NewUserMessage(text string) UserMessage {
	return UserMessage{entry: newEntry(), Text: text}
}

// NewTyping creates a Typing placeholder.
func NewTyping() Typing {
	return Typing{entry: newEntry()}
}

// NewAgentQuestion creates an AgentQuestion.
func NewAgentQuestion(question string) AgentQuestion {
	return AgentQuestion{entry: newEntry(), Question: question}
}

// NewAgentHandoff creates an AgentHandoff.
func NewAgentHandoff() AgentHandoff {
	return AgentHandoff{entry: newEntry()}
}

// NewAgentResult creates an AgentResult.
func NewAgentResult(description string, subtasks []models.SubtaskNode) AgentResult {
	return AgentResult{entry: newEntry(), Description: description, Subtasks: subtasks}
}

// NewAgentError creates an AgentError.
func NewAgentError() AgentError {
	return AgentError{entry: newEntry()}
}

// MessageHandlers has one handler per message type.
type MessageHandlers[R any] struct {
	User     func(UserMessage) R
	Typing   func(Typing) R
	Question func(AgentQuestion) R
	Handoff  func(AgentHandoff) R
	Result   func(AgentResult) R
	Error    func(AgentError) R
}

// MatchMessage calls the handler for the concrete message type.
// It panics if the matching handler is nil.
func MatchMessage[R any](m Message, h MessageHandlers[R]) R {
	switch v := m.(type) {
	case UserMessage:
		return h.User(v)
	case Typing:
		return h.Typing(v)
	case AgentQuestion:
		return h.Question(v)
	case AgentHandoff:
		return h.Handoff(v)
	case AgentResult:
		return h.Result(v)
	case AgentError:
		return h.Error(v)
	default:
		panic(fmt.Sprintf("chat: unhandled message %T", m))
	}
}

// Kind returns a short lowercase name of the message type, used in logs.
func Kind(m Message) string {
	return MatchMessage(m, MessageHandlers[string]{
		User:     func(UserMessage) string { return "user" },
		Typing:   func(Typing) string { return "typing" },
		Question: func(AgentQuestion) string { return "question" },
		Handoff:  func(AgentHandoff) string { return "handoff" },
		Result:   func(AgentResult) string { return "result" },
		Error:    func(AgentError) string { return "error" },
	})
}
