package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askadoc/askadoc/internal/api"
	"github.com/askadoc/askadoc/internal/api/middleware"
	"github.com/askadoc/askadoc/internal/service"
)

// maxUploadMemory bounds how much of a multipart form is held in memory;
// larger parts spill to temp files.
const maxUploadMemory = 10 << 20

type DocumentService interface {
	IngestFiles(ctx context.Context, userID string, files []service.FileUpload) (*service.IngestReport, error)
	ListFilenames(ctx context.Context, userID string) ([]string, error)
	DownloadURL(ctx context.Context, userID, filename string) (string, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// Upload ingests one or more files from a multipart form. The form field is
// "files"; re-uploading a filename replaces the stored document.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		api.Error(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	uploads := make([]service.FileUpload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}

		uploads = append(uploads, service.FileUpload{
			Filename: header.Filename,
			Data:     data,
		})
	}

	report, err := h.svc.IngestFiles(r.Context(), userID, uploads)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, report)
}

// List returns the caller's uploaded filenames in upload order.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filenames, err := h.svc.ListFilenames(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, filenames)
}

// Download returns a presigned URL for the raw uploaded file.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filename := chi.URLParam(r, "filename")
	if filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	url, err := h.svc.DownloadURL(r.Context(), userID, filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DownloadURLResponse{DownloadURL: url})
}
