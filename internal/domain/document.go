package domain

import (
	"fmt"
	"time"
)

// Document represents an uploaded document that has been split into chunks.
// A document is immutable once stored; re-uploading the same filename for the
// same user replaces it wholesale.
type Document struct {
	ID         string
	UserID     string
	Filename   string
	UploadedAt time.Time
	Chunks     []Chunk
}

// Chunk is a bounded-size slice of document text paired with its embedding.
// The embedding is computed once at ingestion and never recomputed unless the
// document is re-uploaded.
type Chunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// NewDocument creates a new Document instance without chunks attached.
func NewDocument(id, userID, filename string, uploadedAt time.Time) *Document {
	return &Document{
		ID:         id,
		UserID:     userID,
		Filename:   filename,
		UploadedAt: uploadedAt,
	}
}

// ValidateDocument validates a Document instance. A document must carry at
// least one chunk: files yielding no extractable text are rejected before
// they ever reach storage.
func ValidateDocument(d *Document, embeddingDims int) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.UserID == "" {
		return fmt.Errorf("document UserID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if len(d.Chunks) == 0 {
		return fmt.Errorf("document must have at least one chunk")
	}

	for i, c := range d.Chunks {
		if c.Content == "" {
			return fmt.Errorf("chunk %d has empty content", i)
		}
		if embeddingDims > 0 && len(c.Embedding) != embeddingDims {
			return fmt.Errorf("chunk %d embedding has %d dimensions, expected %d", i, len(c.Embedding), embeddingDims)
		}
	}

	return nil
}
