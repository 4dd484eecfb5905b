package logging

import (
	"sync"
	"time"
)

// Severity classifies a ring entry. Values mirror the levels the
// presentation layer understands.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeveritySecurity Severity = "security"
)

// Entry is one diagnostic record. Entries are informational only and must
// never drive authorization decisions.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	ActingUser string    `json:"acting_user,omitempty"`
}

// DefaultRingCapacity bounds the diagnostic ring; the oldest entry is
// evicted once the ring is full.
const DefaultRingCapacity = 100

// Ring is a fixed-capacity, concurrency-safe buffer of diagnostic entries.
type Ring struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
}

// NewRing creates a ring holding at most capacity entries. A non-positive
// capacity falls back to DefaultRingCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{cap: capacity}
}

// Append adds an entry, evicting the oldest one when the ring is full.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == r.cap {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:r.cap-1]
	}
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the current entries, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of buffered entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops all buffered entries.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
