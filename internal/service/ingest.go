package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/telemetry"
)

// DocumentRepository defines the repository interface for document and chunk
// persistence.
type DocumentRepository interface {
	// Replace removes any existing document with the same owner and filename
	// and inserts the new document with all its chunks.
	Replace(ctx context.Context, doc *domain.Document) error
	QueryChunksByScope(ctx context.Context, userID string, scope Scope) ([]domain.Chunk, error)
	ListFilenames(ctx context.Context, userID string) ([]string, error)
	GetByFilename(ctx context.Context, userID, filename string) (*domain.Document, error)
}

// StorageClient stores raw uploaded files for later download. Optional;
// ingestion works without it.
type StorageClient interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// IngestConfig controls chunking and embedding during ingestion.
type IngestConfig struct {
	ChunkSize       int
	EmbeddingDims   int
	UpstreamTimeout time.Duration
}

// IngestService turns extracted document text into persisted, embedded chunks.
type IngestService struct {
	docs      DocumentRepository
	tx        TxRunner
	embedder  EmbeddingClient
	extractor TextExtractor
	storage   StorageClient
	uuidGen   UUIDGenerator
	cfg       IngestConfig
	now       func() time.Time
}

// NewIngestService creates a new IngestService instance. storage may be nil.
func NewIngestService(
	docs DocumentRepository,
	tx TxRunner,
	embedder EmbeddingClient,
	extractor TextExtractor,
	storage StorageClient,
	cfg IngestConfig,
) *IngestService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 30 * time.Second
	}
	return &IngestService{
		docs:      docs,
		tx:        tx,
		embedder:  embedder,
		extractor: extractor,
		storage:   storage,
		uuidGen:   &DefaultUUIDGenerator{},
		cfg:       cfg,
		now:       time.Now,
	}
}

// IngestDocument chunks and embeds already-extracted text and persists the
// document atomically. Text that is empty after trimming is rejected; no
// document row is ever stored without at least one chunk.
func (s *IngestService) IngestDocument(ctx context.Context, userID, filename, extractedText string) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestDocument", telemetry.SpanAttributes{
		UserID:    userID,
		Filename:  filename,
		Operation: "ingest_document",
	})
	defer span.End()

	if userID == "" || filename == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "user ID and filename are required")
	}
	if strings.TrimSpace(extractedText) == "" {
		return nil, domain.ErrEmptyExtraction
	}

	chunks := SplitChunks(extractedText, s.cfg.ChunkSize)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyExtraction
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()
	embeddings, err := s.embedder.GenerateEmbeddings(embedCtx, chunks)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	doc := domain.NewDocument(s.uuidGen.NewString(), userID, filename, s.now().UTC())
	doc.Chunks = make([]domain.Chunk, len(chunks))
	for i, content := range chunks {
		doc.Chunks[i] = domain.Chunk{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    content,
			Embedding:  embeddings[i],
		}
	}

	if err := domain.ValidateDocument(doc, s.cfg.EmbeddingDims); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Documents().Replace(ctx, doc)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

// FileUpload is a single uploaded file pending ingestion.
type FileUpload struct {
	Filename string
	Data     []byte
}

// SkippedFile records why a file in a batch was not ingested.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// IngestReport summarizes a multi-file ingestion batch.
type IngestReport struct {
	Ingested []string      `json:"ingested"`
	Skipped  []SkippedFile `json:"skipped,omitempty"`
}

// IngestFiles extracts and ingests a batch of uploaded files. Extraction
// failures are isolated per file: one unreadable file does not abort the
// batch. Any other pipeline failure (embedding, storage) aborts the request
// and is returned to the caller.
func (s *IngestService) IngestFiles(ctx context.Context, userID string, files []FileUpload) (*IngestReport, error) {
	report := &IngestReport{}

	for _, f := range files {
		text, err := s.extractFile(ctx, f)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Filename: f.Filename, Reason: userMessage(err)})
			continue
		}

		if _, err := s.IngestDocument(ctx, userID, f.Filename, text); err != nil {
			if isExtractionError(err) {
				report.Skipped = append(report.Skipped, SkippedFile{Filename: f.Filename, Reason: userMessage(err)})
				continue
			}
			return nil, err
		}

		if s.storage != nil {
			// Raw retention is best-effort; a storage hiccup must not undo
			// an already-persisted document.
			key := userID + "/" + f.Filename
			if err := s.storage.PutObject(ctx, key, contentTypeFor(f.Filename), f.Data); err != nil {
				log.Printf("raw upload retention failed for %s: %v", f.Filename, err)
			}
		}

		report.Ingested = append(report.Ingested, f.Filename)
	}

	return report, nil
}

// DownloadURL returns a presigned URL for the raw uploaded file, when raw
// retention is configured.
func (s *IngestService) DownloadURL(ctx context.Context, userID, filename string) (string, error) {
	if s.storage == nil {
		return "", domain.NewDomainError(domain.ErrCodeInternalError, "raw file storage is not configured")
	}

	if _, err := s.docs.GetByFilename(ctx, userID, filename); err != nil {
		return "", err
	}

	return s.storage.GenerateDownloadURL(ctx, userID+"/"+filename)
}

// ListFilenames returns the user's uploaded filenames in upload order.
func (s *IngestService) ListFilenames(ctx context.Context, userID string) ([]string, error) {
	return s.docs.ListFilenames(ctx, userID)
}

func (s *IngestService) extractFile(ctx context.Context, f FileUpload) (string, error) {
	kind, err := KindFromFilename(f.Filename)
	if err != nil {
		return "", err
	}

	text, err := s.extractor.Extract(ctx, f.Data, kind)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyExtraction
	}
	return text, nil
}

func isExtractionError(err error) bool {
	domainErr, ok := err.(*domain.DomainError)
	return ok && domainErr.Code == domain.ErrCodeExtraction
}

// userMessage strips internal detail from an error before it reaches the
// upload report.
func userMessage(err error) string {
	if domainErr, ok := err.(*domain.DomainError); ok {
		return domainErr.Message
	}
	return "file could not be processed"
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(filename, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	default:
		return "text/plain"
	}
}
