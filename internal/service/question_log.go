package service

import (
	"context"
	"sync"
	"time"
)

// QuestionLogEntry is an audit record for one answered question.
type QuestionLogEntry struct {
	UserID     string
	Question   string
	ScopeMode  string
	ChunkCount int
	Overridden bool
	DurationMs int
	CreatedAt  time.Time
}

// QuestionLogRepository persists question audit records.
type QuestionLogRepository interface {
	InsertBatch(ctx context.Context, entries []QuestionLogEntry) error
}

// QuestionLogBuffer collects audit entries in memory for asynchronous
// flushing by the background worker. When the buffer is full, new entries
// are dropped; audit logging never blocks or fails a request.
type QuestionLogBuffer struct {
	mu      sync.Mutex
	entries []QuestionLogEntry
	max     int
	dropped int
}

// NewQuestionLogBuffer creates a buffer holding at most max entries.
func NewQuestionLogBuffer(max int) *QuestionLogBuffer {
	if max <= 0 {
		max = 1024
	}
	return &QuestionLogBuffer{max: max}
}

// Add appends an entry, dropping it if the buffer is full.
func (b *QuestionLogBuffer) Add(entry QuestionLogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) >= b.max {
		b.dropped++
		return
	}
	b.entries = append(b.entries, entry)
}

// Drain returns all buffered entries and resets the buffer.
func (b *QuestionLogBuffer) Drain() []QuestionLogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}

// Dropped returns how many entries were discarded because the buffer was
// full.
func (b *QuestionLogBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
