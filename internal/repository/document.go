package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/service"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Replace removes any existing document with the same owner and filename and
// inserts the new document with all its chunks. Run it inside a transaction;
// a failed insert must not leave the old document deleted.
func (r *DocumentRepository) Replace(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE user_id = $1 AND filename = $2`,
		doc.UserID, doc.Filename,
	)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO documents (id, user_id, filename, uploaded_at)
		 VALUES ($1, $2, $3, $4)`,
		doc.ID, doc.UserID, doc.Filename, doc.UploadedAt,
	)
	if err != nil {
		return err
	}

	rows := make([][]any, len(doc.Chunks))
	for i, c := range doc.Chunks {
		rows[i] = []any{c.ID, c.DocumentID, c.ChunkIndex, c.Content, pgvector.NewVector(c.Embedding)}
	}
	_, err = r.db.CopyFrom(ctx,
		pgx.Identifier{"document_chunks"},
		[]string{"id", "document_id", "chunk_index", "content", "embedding"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// QueryChunksByScope returns the candidate chunks for a question. The order
// is deterministic (upload order, then chunk order) so downstream ranking
// can break similarity ties by candidate position.
func (r *DocumentRepository) QueryChunksByScope(ctx context.Context, userID string, scope service.Scope) ([]domain.Chunk, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $1`
	args := []any{userID}

	if scope.Mode == service.ScopeDocument || scope.Mode == service.ScopeCustom {
		query += ` AND d.filename = ANY($2)`
		args = append(args, scope.Documents)
	}

	query += ` ORDER BY d.uploaded_at, d.id, c.chunk_index`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &vec); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// ListFilenames returns the user's uploaded filenames in upload order.
func (r *DocumentRepository) ListFilenames(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT filename FROM documents WHERE user_id = $1 ORDER BY uploaded_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	filenames := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		filenames = append(filenames, name)
	}
	return filenames, rows.Err()
}

// GetByFilename returns the document row without its chunks.
func (r *DocumentRepository) GetByFilename(ctx context.Context, userID, filename string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, filename, uploaded_at
		 FROM documents WHERE user_id = $1 AND filename = $2`,
		userID, filename,
	).Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}
