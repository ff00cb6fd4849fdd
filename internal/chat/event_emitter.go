package chat

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const emitTimeout = 100 * time.Millisecond

// EventEmitter delivers session events on a buffered channel.
// A slow subscriber never blocks the session for longer than emitTimeout;
// events that cannot be delivered in time are dropped and counted.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
	logger       *zap.Logger
	onDrop       func()
}

// NewEventEmitter creates an EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger *zap.Logger) *EventEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventEmitter{
		events: make(chan Event, bufferSize),
		logger: logger,
	}
}

// OnDrop sets a function called for every dropped event. It must be set
// before the first Emit.
func (e *EventEmitter) OnDrop(fn func()) {
	e.onDrop = fn
}

// Emit sends an event, waiting up to emitTimeout when the buffer is full.
func (e *EventEmitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	timer := time.NewTimer(emitTimeout)
	defer timer.Stop()

	select {
	case e.events <- event:
	case <-timer.C:
		count := e.droppedCount.Add(1)
		if e.onDrop != nil {
			e.onDrop()
		}
		if count%10 == 1 {
			e.logger.Warn("event channel full, dropped event",
				zap.Uint64("dropped_total", count),
				zap.String("type", string(event.Type)))
		}
	}
}

// DroppedCount returns the total number of dropped events.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the receive side of the event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Emit must not be called afterwards.
func (e *EventEmitter) Close() {
	close(e.events)
}
