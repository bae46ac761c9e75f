package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/askadoc/askadoc/internal/api"
	"github.com/askadoc/askadoc/internal/api/middleware"
	"github.com/askadoc/askadoc/internal/service"
)

type ChatService interface {
	AnswerQuestion(ctx context.Context, userID, question string, scope service.Scope) (*service.Answer, error)
}

type HistoryService interface {
	ActivePairs(ctx context.Context, userID string) ([]service.TurnPair, error)
}

type ChatHandler struct {
	chat    ChatService
	history HistoryService
}

func NewChatHandler(chat ChatService, history HistoryService) *ChatHandler {
	return &ChatHandler{chat: chat, history: history}
}

type ChatRequest struct {
	Question  string   `json:"question"`
	Scope     string   `json:"scope,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// Ask answers a question grounded in the caller's uploaded documents.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	scope := service.Scope{
		Mode:      service.ScopeMode(req.Scope),
		Documents: req.Documents,
	}

	answer, err := h.chat.AnswerQuestion(r.Context(), userID, req.Question, scope)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answer)
}

// History returns the active session as question/answer pairs.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pairs, err := h.history.ActivePairs(r.Context(), userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, pairs)
}
