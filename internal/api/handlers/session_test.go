package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askadoc/askadoc/internal/domain"
)

type stubSessionService struct {
	previews []*domain.ArchivePreview
	archive  *domain.ConversationArchive
	err      error
	started  bool
}

func (s *stubSessionService) StartNewSession(_ context.Context, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.started = true
	return nil
}

func (s *stubSessionService) ListArchives(_ context.Context, _ string) ([]*domain.ArchivePreview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.previews, nil
}

func (s *stubSessionService) GetArchive(_ context.Context, _ string, _ int) (*domain.ConversationArchive, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.archive, nil
}

func TestSessionHandler_StartNew(t *testing.T) {
	svc := &stubSessionService{}
	handler := NewSessionHandler(svc)

	req := authedRequest(http.MethodPost, "/sessions/new", "")
	rec := httptest.NewRecorder()
	handler.StartNew(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.started)
}

func TestSessionHandler_ListArchives(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubSessionService{previews: []*domain.ArchivePreview{
		{StartedAt: now, EndedAt: now, TurnCount: 2, FirstContent: "q", LastContent: "a"},
	}}
	handler := NewSessionHandler(svc)

	req := authedRequest(http.MethodGet, "/sessions/archives", "")
	rec := httptest.NewRecorder()
	handler.ListArchives(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []domain.ArchivePreview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].TurnCount)
}

func TestSessionHandler_GetArchive(t *testing.T) {
	t.Run("returns full turns", func(t *testing.T) {
		now := time.Now().UTC()
		svc := &stubSessionService{archive: &domain.ConversationArchive{
			UserID:    "user-1",
			StartedAt: now,
			EndedAt:   now,
			Turns: []domain.ConversationTurn{
				{Role: domain.RoleUser, Content: "q", Timestamp: now},
				{Role: domain.RoleAssistant, Content: "a", Timestamp: now},
			},
		}}
		handler := NewSessionHandler(svc)

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("index", "0")
		req := authedRequest(http.MethodGet, "/sessions/archives/0", "")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rec := httptest.NewRecorder()
		handler.GetArchive(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"turns"`)
	})

	t.Run("non-integer index", func(t *testing.T) {
		handler := NewSessionHandler(&stubSessionService{})

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("index", "abc")
		req := authedRequest(http.MethodGet, "/sessions/archives/abc", "")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rec := httptest.NewRecorder()
		handler.GetArchive(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown index yields 404", func(t *testing.T) {
		handler := NewSessionHandler(&stubSessionService{err: domain.ErrArchiveNotFound})

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("index", "9")
		req := authedRequest(http.MethodGet, "/sessions/archives/9", "")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rec := httptest.NewRecorder()
		handler.GetArchive(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlers_Unauthorized(t *testing.T) {
	sessionHandler := NewSessionHandler(&stubSessionService{})

	req := httptest.NewRequest(http.MethodPost, "/sessions/new", nil)
	rec := httptest.NewRecorder()
	sessionHandler.StartNew(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
