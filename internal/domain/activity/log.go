package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/care-backend/pkg/util"
)

// Intake payload kinds.
const (
	KindText  = "text"
	KindAudio = "audio"
)

// Entry outcome statuses.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

const maxErrorLen = 300

// Entry records a single intake attempt. Immutable once appended.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Log is a fixed-capacity ring buffer of intake attempts, shared by every
// request handler in the process. Appends evict the oldest entry at capacity.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	start    int
	size     int
	capacity int
	now      func() time.Time
}

// NewLog constructs an empty log. Capacity must be positive.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 1
	}
	return &Log{
		entries:  make([]Entry, capacity),
		capacity: capacity,
		now:      util.NowUTC,
	}
}

// Append inserts entry as the newest record, assigning an id and timestamp
// when absent and truncating the error message for display safety. The
// returned entry is the stored value.
func (l *Log) Append(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if len([]rune(entry.Error)) > maxErrorLen {
		entry.Error = string([]rune(entry.Error)[:maxErrorLen])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	idx := (l.start + l.size) % l.capacity
	l.entries[idx] = entry
	if l.size < l.capacity {
		l.size++
	} else {
		l.start = (l.start + 1) % l.capacity
	}
	return entry
}

// Recent returns up to n entries ordered newest-first by insertion order.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || l.size == 0 {
		return []Entry{}
	}
	if n > l.size {
		n = l.size
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.start + l.size - 1 - i + l.capacity) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Len reports the number of entries currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}
