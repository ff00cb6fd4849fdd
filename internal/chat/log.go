package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Log is the append-only visible message log. The only removal it allows is
// of a trailing Typing placeholder. Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Message
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message at the end.
func (l *Log) Append(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, m)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Last returns the last entry, if any.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return nil, false
	}
	return l.entries[len(l.entries)-1], true
}

// Snapshot returns a copy of the entries in order.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// RemoveTyping removes the last entry if it is the Typing placeholder with
// the given ID. Any other entry is left alone. It reports whether an entry
// was removed.
func (l *Log) RemoveTyping(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	if n == 0 {
		return false
	}
	typing, ok := l.entries[n-1].(Typing)
	if !ok || typing.ID() != id {
		return false
	}
	l.entries[n-1] = nil
	l.entries = l.entries[:n-1]
	return true
}
