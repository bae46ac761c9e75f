package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/askadoc/askadoc/internal/service"
)

// QuestionLogWorker drains the in-memory question audit buffer and writes
// the entries to the database in one batch per poll.
type QuestionLogWorker struct {
	buffer *service.QuestionLogBuffer
	repo   service.QuestionLogRepository
}

// NewQuestionLogWorker creates a new QuestionLogWorker instance
func NewQuestionLogWorker(buffer *service.QuestionLogBuffer, repo service.QuestionLogRepository) *QuestionLogWorker {
	return &QuestionLogWorker{
		buffer: buffer,
		repo:   repo,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *QuestionLogWorker) ProcessJobs(ctx context.Context) error {
	entries := w.buffer.Drain()
	if len(entries) == 0 {
		return nil
	}

	if err := w.repo.InsertBatch(ctx, entries); err != nil {
		// Entries are dropped rather than requeued; the audit log is
		// best-effort and must not grow without bound on DB outage.
		return fmt.Errorf("failed to flush %d question log entries: %w", len(entries), err)
	}

	log.Printf("Flushed %d question log entries", len(entries))
	return nil
}
