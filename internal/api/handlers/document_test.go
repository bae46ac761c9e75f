package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askadoc/askadoc/internal/api/middleware"
	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/service"
)

type stubDocumentService struct {
	report    *service.IngestReport
	filenames []string
	url       string
	err       error
	gotFiles  []service.FileUpload
}

func (s *stubDocumentService) IngestFiles(_ context.Context, _ string, files []service.FileUpload) (*service.IngestReport, error) {
	s.gotFiles = files
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubDocumentService) ListFilenames(_ context.Context, _ string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.filenames, nil
}

func (s *stubDocumentService) DownloadURL(_ context.Context, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestDocumentHandler_Upload(t *testing.T) {
	t.Run("ingests files from the form", func(t *testing.T) {
		svc := &stubDocumentService{report: &service.IngestReport{Ingested: []string{"a.txt", "b.txt"}}}
		handler := NewDocumentHandler(svc)

		body, contentType := multipartUpload(t, map[string]string{
			"a.txt": "alpha content",
			"b.txt": "beta content",
		})
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))

		rec := httptest.NewRecorder()
		handler.Upload(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, svc.gotFiles, 2)
	})

	t.Run("empty form rejected", func(t *testing.T) {
		handler := NewDocumentHandler(&stubDocumentService{})

		body, contentType := multipartUpload(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", contentType)
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))

		rec := httptest.NewRecorder()
		handler.Upload(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewDocumentHandler(&stubDocumentService{})

		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		rec := httptest.NewRecorder()
		handler.Upload(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDocumentHandler_List(t *testing.T) {
	svc := &stubDocumentService{filenames: []string{"a.txt", "b.txt"}}
	handler := NewDocumentHandler(svc)

	req := authedRequest(http.MethodGet, "/documents", "")
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a.txt", "b.txt"}, resp.Data)
}

func TestDocumentHandler_Download(t *testing.T) {
	t.Run("returns presigned URL", func(t *testing.T) {
		svc := &stubDocumentService{url: "https://files.example.com/user-1/a.txt?sig=x"}
		handler := NewDocumentHandler(svc)

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("filename", "a.txt")
		req := authedRequest(http.MethodGet, "/documents/a.txt/download", "")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rec := httptest.NewRecorder()
		handler.Download(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "https://files.example.com")
	})

	t.Run("unknown document yields 404", func(t *testing.T) {
		svc := &stubDocumentService{err: domain.ErrDocumentNotFound}
		handler := NewDocumentHandler(svc)

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("filename", "missing.txt")
		req := authedRequest(http.MethodGet, "/documents/missing.txt/download", "")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rec := httptest.NewRecorder()
		handler.Download(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
