package service

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/askadoc/askadoc/internal/domain"
)

// FileKind identifies the format of an uploaded file.
type FileKind string

const (
	FileKindText  FileKind = "txt"
	FileKindPDF   FileKind = "pdf"
	FileKindDocx  FileKind = "docx"
	FileKindImage FileKind = "image"
)

// KindFromFilename maps a filename extension to a FileKind.
func KindFromFilename(filename string) (FileKind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "txt", "md":
		return FileKindText, nil
	case "pdf":
		return FileKindPDF, nil
	case "docx":
		return FileKindDocx, nil
	case "png", "jpg", "jpeg":
		return FileKindImage, nil
	default:
		return "", domain.ErrUnsupportedFile
	}
}

// TextExtractor converts raw file bytes into plain text. An empty result is
// treated by callers as "no chunks produced" and the file is rejected.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind FileKind) (string, error)
}

// ExtractorRegistry dispatches extraction by file kind. Kinds without a
// registered extractor fail with an extraction error rather than panicking,
// so a deployment without OCR support degrades per-file.
type ExtractorRegistry struct {
	extractors map[FileKind]TextExtractor
}

// NewExtractorRegistry creates a registry with plain-text support built in.
// PDF, docx and image extraction are external capabilities registered by the
// caller when available.
func NewExtractorRegistry() *ExtractorRegistry {
	r := &ExtractorRegistry{extractors: make(map[FileKind]TextExtractor)}
	r.Register(FileKindText, PlainTextExtractor{})
	return r
}

// Register installs an extractor for a file kind, replacing any previous one.
func (r *ExtractorRegistry) Register(kind FileKind, ex TextExtractor) {
	r.extractors[kind] = ex
}

// Extract implements TextExtractor by dispatching on kind.
func (r *ExtractorRegistry) Extract(ctx context.Context, data []byte, kind FileKind) (string, error) {
	ex, ok := r.extractors[kind]
	if !ok {
		return "", domain.NewDomainError(domain.ErrCodeExtraction, "no extractor available for "+string(kind)+" files")
	}
	return ex.Extract(ctx, data, kind)
}

// PlainTextExtractor reads UTF-8 text files as-is, normalizing Windows line
// endings.
type PlainTextExtractor struct{}

// Extract implements TextExtractor.
func (PlainTextExtractor) Extract(_ context.Context, data []byte, _ FileKind) (string, error) {
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}
