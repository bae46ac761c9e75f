package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/askadoc/askadoc/internal/api"
	"github.com/askadoc/askadoc/internal/api/middleware"
	"github.com/askadoc/askadoc/internal/domain"
)

type SessionService interface {
	StartNewSession(ctx context.Context, userID string) error
	ListArchives(ctx context.Context, userID string) ([]*domain.ArchivePreview, error)
	GetArchive(ctx context.Context, userID string, index int) (*domain.ConversationArchive, error)
}

type SessionHandler struct {
	svc SessionService
}

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type ArchiveResponse struct {
	StartedAt string                    `json:"started_at"`
	EndedAt   string                    `json:"ended_at"`
	Turns     []domain.ConversationTurn `json:"turns"`
}

// StartNew archives the current session, if non-empty, and starts a fresh one.
func (h *SessionHandler) StartNew(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.StartNewSession(r.Context(), userID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "new session started"})
}

// ListArchives returns previews of the caller's archived sessions.
func (h *SessionHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	previews, err := h.svc.ListArchives(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, previews)
}

// GetArchive returns a full archived session by list position, oldest first.
func (h *SessionHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	archive, err := h.svc.GetArchive(r.Context(), userID, index)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ArchiveResponse{
		StartedAt: archive.StartedAt.Format("2006-01-02T15:04:05Z"),
		EndedAt:   archive.EndedAt.Format("2006-01-02T15:04:05Z"),
		Turns:     archive.Turns,
	})
}
