package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askadoc/askadoc/internal/domain"
)

type ConversationRepository struct {
	db dbtx
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: pool}
}

func NewConversationRepositoryWithTx(tx pgx.Tx) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

// GetActive returns the user's active history. A user with no conversation
// row gets an empty conversation, not an error.
func (r *ConversationRepository) GetActive(ctx context.Context, userID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var turnsJSON []byte
	err := r.db.QueryRow(ctx,
		`SELECT user_id, started_at, turns
		 FROM conversations WHERE user_id = $1`,
		userID,
	).Scan(&conv.UserID, &conv.StartedAt, &turnsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Conversation{UserID: userID}, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(turnsJSON, &conv.Turns); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepository) UpsertActive(ctx context.Context, conv *domain.Conversation) error {
	turnsJSON, err := json.Marshal(conv.Turns)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO conversations (user_id, started_at, turns)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (user_id) DO UPDATE SET started_at = EXCLUDED.started_at, turns = EXCLUDED.turns`,
		conv.UserID, conv.StartedAt, turnsJSON,
	)
	return err
}

// ResetActive clears the user's active history and stamps the new session
// start.
func (r *ConversationRepository) ResetActive(ctx context.Context, userID string, startedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO conversations (user_id, started_at, turns)
		 VALUES ($1, $2, '[]'::jsonb)
		 ON CONFLICT (user_id) DO UPDATE SET started_at = EXCLUDED.started_at, turns = '[]'::jsonb`,
		userID, startedAt,
	)
	return err
}

func (r *ConversationRepository) InsertArchive(ctx context.Context, archive *domain.ConversationArchive) error {
	turnsJSON, err := json.Marshal(archive.Turns)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO conversation_archives (user_id, started_at, ended_at, turns)
		 VALUES ($1, $2, $3, $4::jsonb)`,
		archive.UserID, archive.StartedAt, archive.EndedAt, turnsJSON,
	)
	return err
}

// ListArchives returns the user's archived sessions oldest first.
func (r *ConversationRepository) ListArchives(ctx context.Context, userID string) ([]*domain.ConversationArchive, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, started_at, ended_at, turns
		 FROM conversation_archives WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var archives []*domain.ConversationArchive
	for rows.Next() {
		archive, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, archive)
	}
	return archives, rows.Err()
}

// GetArchiveByIndex returns the archive at the given position in the user's
// archive list, oldest first.
func (r *ConversationRepository) GetArchiveByIndex(ctx context.Context, userID string, index int) (*domain.ConversationArchive, error) {
	row := r.db.QueryRow(ctx,
		`SELECT user_id, started_at, ended_at, turns
		 FROM conversation_archives WHERE user_id = $1 ORDER BY id
		 LIMIT 1 OFFSET $2`,
		userID, index,
	)

	archive, err := scanArchive(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArchiveNotFound
		}
		return nil, err
	}
	return archive, nil
}

func scanArchive(row pgx.Row) (*domain.ConversationArchive, error) {
	var archive domain.ConversationArchive
	var turnsJSON []byte
	if err := row.Scan(&archive.UserID, &archive.StartedAt, &archive.EndedAt, &turnsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(turnsJSON, &archive.Turns); err != nil {
		return nil, err
	}
	return &archive, nil
}
