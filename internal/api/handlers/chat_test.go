package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askadoc/askadoc/internal/api/middleware"
	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/service"
)

type stubChatService struct {
	answer   *service.Answer
	err      error
	gotScope service.Scope
}

func (s *stubChatService) AnswerQuestion(_ context.Context, _ string, _ string, scope service.Scope) (*service.Answer, error) {
	s.gotScope = scope
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type stubHistoryService struct {
	pairs []service.TurnPair
	err   error
}

func (s *stubHistoryService) ActivePairs(_ context.Context, _ string) ([]service.TurnPair, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pairs, nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, "user-1")
	return req.WithContext(ctx)
}

func TestChatHandler_Ask(t *testing.T) {
	t.Run("returns answer with used context", func(t *testing.T) {
		chat := &stubChatService{answer: &service.Answer{
			Answer:      "The sky is blue.",
			UsedContext: []string{"The sky is blue on clear days."},
		}}
		handler := NewChatHandler(chat, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{"question":"what color is the sky?"}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data service.Answer `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "The sky is blue.", resp.Data.Answer)
		assert.Len(t, resp.Data.UsedContext, 1)
	})

	t.Run("passes scope through", func(t *testing.T) {
		chat := &stubChatService{answer: &service.Answer{Answer: "ok"}}
		handler := NewChatHandler(chat, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{"question":"q","scope":"document","documents":["notes.txt"]}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, service.ScopeDocument, chat.gotScope.Mode)
		assert.Equal(t, []string{"notes.txt"}, chat.gotScope.Documents)
	})

	t.Run("no documents uploaded yields 400", func(t *testing.T) {
		chat := &stubChatService{err: domain.ErrNoContext}
		handler := NewChatHandler(chat, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{"question":"q"}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "please upload a document first")
	})

	t.Run("upstream failure yields 502", func(t *testing.T) {
		chat := &stubChatService{err: domain.ErrUpstream}
		handler := NewChatHandler(chat, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{"question":"q"}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("upstream timeout yields 504", func(t *testing.T) {
		chat := &stubChatService{err: domain.ErrUpstreamTimeout}
		handler := NewChatHandler(chat, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{"question":"q"}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("missing question", func(t *testing.T) {
		handler := NewChatHandler(&stubChatService{}, &stubHistoryService{})

		req := authedRequest(http.MethodPost, "/chat", `{}`)
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewChatHandler(&stubChatService{}, &stubHistoryService{})

		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		handler.Ask(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestChatHandler_History(t *testing.T) {
	history := &stubHistoryService{pairs: []service.TurnPair{
		{Question: "what color is the sky?", Answer: "The sky is blue."},
	}}
	handler := NewChatHandler(&stubChatService{}, history)

	req := authedRequest(http.MethodGet, "/history", "")
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []service.TurnPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "The sky is blue.", resp.Data[0].Answer)
}
