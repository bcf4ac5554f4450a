package service

import (
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// DefaultWarningCapacity bounds the in-memory warning log.
const DefaultWarningCapacity = 200

// WarningLog keeps the most recent consistency warnings, oldest evicted first.
type WarningLog struct {
	mu       sync.Mutex
	capacity int
	entries  []domain.ConsistencyWarning
	start    int
}

// NewWarningLog returns a log holding at most capacity warnings.
func NewWarningLog(capacity int) *WarningLog {
	if capacity <= 0 {
		capacity = DefaultWarningCapacity
	}
	return &WarningLog{capacity: capacity, entries: make([]domain.ConsistencyWarning, 0, capacity)}
}

// Add appends a warning, evicting the oldest when full.
func (l *WarningLog) Add(w domain.ConsistencyWarning) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, w)
		return
	}
	l.entries[l.start] = w
	l.start = (l.start + 1) % l.capacity
}

// Recent returns warnings newest first.
func (l *WarningLog) Recent() []domain.ConsistencyWarning {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	out := make([]domain.ConsistencyWarning, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, l.entries[(l.start+i)%n])
	}
	return out
}
