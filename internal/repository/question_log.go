package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askadoc/askadoc/internal/pagination"
	"github.com/askadoc/askadoc/internal/service"
)

// QuestionLogRepository persists question audit records flushed by the
// background worker.
type QuestionLogRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionLogRepository(pool *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{pool: pool}
}

func (r *QuestionLogRepository) InsertBatch(ctx context.Context, entries []service.QuestionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.UserID, e.Question, e.ScopeMode, e.ChunkCount, e.Overridden, e.DurationMs, e.CreatedAt}
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"question_logs"},
		[]string{"user_id", "question", "scope_mode", "chunk_count", "overridden", "duration_ms", "created_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// QuestionLogRecord is a persisted audit row.
type QuestionLogRecord struct {
	ID         int64
	UserID     string
	Question   string
	ScopeMode  string
	ChunkCount int
	Overridden bool
	DurationMs int
	CreatedAt  time.Time
}

// ListPage returns audit rows newest first, using keyset pagination so the
// scan stays cheap as the log grows.
func (r *QuestionLogRepository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.Page[QuestionLogRecord], error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, question, scope_mode, chunk_count, overridden, duration_ms, created_at
		FROM question_logs`
	args := []any{}
	if cursor != nil {
		query += ` WHERE (created_at, id) < ($1, $2)`
		args = append(args, cursor.Timestamp, cursor.LastID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	pgRows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer pgRows.Close()

	var records []QuestionLogRecord
	for pgRows.Next() {
		var rec QuestionLogRecord
		if err := pgRows.Scan(&rec.ID, &rec.UserID, &rec.Question, &rec.ScopeMode, &rec.ChunkCount, &rec.Overridden, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := pgRows.Err(); err != nil {
		return nil, err
	}

	return pagination.NewPage(records, limit,
		func(rec QuestionLogRecord) int64 { return rec.ID },
		func(rec QuestionLogRecord) time.Time { return rec.CreatedAt },
	), nil
}
