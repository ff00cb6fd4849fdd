package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sd155/subtasker/internal/agent"
	"github.com/sd155/subtasker/internal/checker"
	"github.com/sd155/subtasker/internal/decompose"
	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/result"
	"github.com/sd155/subtasker/pkg/models"
)

var (
	// ErrSessionClosed is returned when a prompt is submitted after Close or
	// after the session stopped on a defect.
	ErrSessionClosed = errors.New("chat session is closed")
	// ErrEmptyPrompt is returned for a prompt with no visible text.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

const defaultEventBuffer = 256

// RequiredConfig contains the collaborators a Session cannot work without.
type RequiredConfig struct {
	// Decomposer handles every prompt and keeps the conversation.
	Decomposer decompose.Agent
	// Checker validates finished decompositions.
	Checker checker.Agent
}

// Option configures a Session. Use With* functions to create Options.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger      *zap.Logger
	eventBuffer int
	recorder    Recorder
}

// Recorder receives session measurements.
type Recorder interface {
	ObserveTurn(state string, d time.Duration)
	SetPending(n int)
	IncDroppedEvents()
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(string, time.Duration) {}
func (nopRecorder) SetPending(int)                    {}
func (nopRecorder) IncDroppedEvents()                 {}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithRecorder sets where turn and queue measurements go.
func WithRecorder(r Recorder) Option {
	return func(o *sessionOptions) { o.recorder = r }
}

// WithEventBuffer sets the capacity of the Updates channel.
func WithEventBuffer(n int) Option {
	return func(o *sessionOptions) { o.eventBuffer = n }
}

type turn struct {
	id     uuid.UUID
	prompt string
}

// Session runs prompts through the decomposer and checker and records the
// conversation in its Log.
//
// Prompts are queued in submission order and processed one at a time by a
// single worker goroutine, so at most one turn is in flight and only that
// turn touches the Typing placeholder.
type Session struct {
	id         uuid.UUID
	decomposer decompose.Agent
	checker    checker.Agent
	log        *Log
	emitter    *EventEmitter
	logger     *zap.Logger
	recorder   Recorder

	mu      sync.Mutex
	pending []turn
	state   TurnState
	closed  bool
	fatal   error

	// typing is the placeholder of the running turn. Worker only.
	typing uuid.UUID

	wake chan struct{}
	done chan struct{}
}

// NewSession creates a session and starts its worker.
func NewSession(cfg RequiredConfig, opts ...Option) (*Session, error) {
	if cfg.Decomposer == nil {
		return nil, errors.New("chat session requires a decomposer")
	}
	if cfg.Checker == nil {
		return nil, errors.New("chat session requires a checker")
	}

	o := sessionOptions{eventBuffer: defaultEventBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.eventBuffer <= 0 {
		o.eventBuffer = defaultEventBuffer
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	id := uuid.New()
	logger := o.logger.With(zap.String("session", id.String()))
	s := &Session{
		id:         id,
		decomposer: cfg.Decomposer,
		checker:    cfg.Checker,
		log:        NewLog(),
		emitter:    NewEventEmitter(o.eventBuffer, logger),
		logger:     logger,
		recorder:   o.recorder,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.emitter.OnDrop(o.recorder.IncDroppedEvents)
	go s.run()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// SubmitPrompt queues text as the next user turn. It returns immediately;
// progress is reported on Updates.
func (s *Session) SubmitPrompt(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.closed || s.fatal != nil {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	t := turn{id: uuid.New(), prompt: text}
	s.pending = append(s.pending, t)
	queued := len(s.pending)
	s.mu.Unlock()

	s.recorder.SetPending(queued)

	s.logger.Debug("prompt queued", zap.String("turn", t.id.String()), zap.Int("queued", queued))
	s.signal()
	return nil
}

// Messages returns a snapshot of the visible log.
func (s *Session) Messages() []Message {
	return s.log.Snapshot()
}

// Updates returns the event channel. It is closed when the worker exits.
func (s *Session) Updates() <-chan Event {
	return s.emitter.Events()
}

// State returns the state of the running turn, or StateIdle.
func (s *Session) State() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the number of prompts waiting behind the running turn.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Err returns the defect that stopped the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

// DroppedEvents returns how many events were dropped because the
// subscriber was too slow.
func (s *Session) DroppedEvents() uint64 {
	return s.emitter.DroppedCount()
}

// Close stops accepting prompts. Prompts already queued are still
// processed. Close does not wait; use Wait. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// Wait blocks until the worker has exited.
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) run() {
	defer close(s.done)
	defer s.emitter.Close()

	for {
		t, ok := s.next()
		if !ok {
			return
		}
		if err := s.process(t); err != nil {
			s.stop(t, err)
			return
		}
	}
}

// next blocks until a prompt is queued or the session is closed and drained.
func (s *Session) next() (turn, bool) {
	for {
		s.mu.Lock()
		if len(s.pending) > 0 {
			t := s.pending[0]
			s.pending = s.pending[1:]
			queued := len(s.pending)
			s.mu.Unlock()
			s.recorder.SetPending(queued)
			return t, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return turn{}, false
		}
		<-s.wake
	}
}

// process runs one turn. An unknown reply role is a defect in the remote
// contract: it is recovered here and returned so the session can stop.
// Any other panic propagates.
func (s *Session) process(t turn) (err error) {
	defer func() {
		if p := recover(); p != nil {
			roleErr, ok := p.(*llm.UnknownRoleError)
			if !ok {
				panic(p)
			}
			err = roleErr
		}
	}()
	s.runTurn(t)
	return nil
}

func (s *Session) stop(t turn, err error) {
	s.log.RemoveTyping(s.typing)
	s.typing = uuid.Nil

	s.mu.Lock()
	s.fatal = err
	s.closed = true
	dropped := len(s.pending)
	s.pending = nil
	s.state = StateIdle
	s.mu.Unlock()
	s.recorder.SetPending(0)

	s.logger.Error("session stopped on defect",
		zap.String("turn", t.id.String()),
		zap.Int("dropped_prompts", dropped),
		zap.Error(err))
	s.emitter.Emit(Event{Type: EventLogChanged, TurnID: t.id, LogLen: s.log.Len()})
	s.emitter.Emit(Event{Type: EventFatal, TurnID: t.id, Prompt: t.prompt, Error: err})
}

func (s *Session) runTurn(t turn) {
	ctx := context.Background()
	start := time.Now()

	s.emitter.Emit(Event{Type: EventTurnStarted, TurnID: t.id, Prompt: t.prompt})
	s.append(t, NewUserMessage(t.prompt))
	s.setState(t, StateAwaitingDecomposition)
	s.showTyping(t)

	final := result.Fold(s.decomposer.Request(ctx, t.prompt),
		func(outcome decompose.Outcome) TurnState {
			return decompose.Match(outcome,
				func(q decompose.Query) TurnState {
					s.settle(t, NewAgentQuestion(q.Question))
					return StateQueryAnswered
				},
				func(d decompose.Decomposed) TurnState {
					return s.check(ctx, t, d.Subtasks)
				},
			)
		},
		func(err *agent.Error) TurnState {
			return s.fail(t, err)
		},
	)

	s.setState(t, final)
	elapsed := time.Since(start)
	s.recorder.ObserveTurn(final.String(), elapsed)
	s.logger.Info("turn done",
		zap.String("turn", t.id.String()),
		zap.Stringer("state", final),
		zap.Duration("duration", elapsed))
	s.emitter.Emit(Event{Type: EventTurnDone, TurnID: t.id, Prompt: t.prompt, State: final, Duration: elapsed})

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func (s *Session) check(ctx context.Context, t turn, subtasks []models.SubtaskNode) TurnState {
	s.logger.Debug("decomposition received",
		zap.String("turn", t.id.String()),
		zap.Int("subtasks", models.Count(subtasks)),
		zap.Int("depth", models.Depth(subtasks)),
		zap.Int("leaves", len(models.Leaves(subtasks))))

	s.settle(t, NewAgentHandoff())
	s.setState(t, StateAwaitingValidation)
	s.showTyping(t)

	return result.Fold(s.checker.Request(ctx, t.prompt, subtasks),
		func(verdict checker.Verdict) TurnState {
			description := checker.Match(verdict,
				func(checker.Valid) string { return DescriptionValid },
				func(inv checker.Invalid) string { return DescriptionInvalidPrefix + inv.Reason },
			)
			s.settle(t, NewAgentResult(description, subtasks))
			return StateDone
		},
		func(err *agent.Error) TurnState {
			return s.fail(t, err)
		},
	)
}

func (s *Session) fail(t turn, err *agent.Error) TurnState {
	s.logger.Warn("agent failed", zap.String("turn", t.id.String()), zap.Error(err))
	s.settle(t, NewAgentError())
	return StateErrorTerminal
}

func (s *Session) showTyping(t turn) {
	typing := NewTyping()
	s.typing = typing.ID()
	s.append(t, typing)
}

// settle replaces the running turn's Typing placeholder with m. The
// placeholder is removed only if it is still the last entry.
func (s *Session) settle(t turn, m Message) {
	s.log.RemoveTyping(s.typing)
	s.typing = uuid.Nil
	s.append(t, m)
}

func (s *Session) append(t turn, m Message) {
	s.log.Append(m)
	s.emitter.Emit(Event{Type: EventLogChanged, TurnID: t.id, LogLen: s.log.Len()})
}

func (s *Session) setState(t turn, state TurnState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.emitter.Emit(Event{Type: EventTurnState, TurnID: t.id, State: state})
}
