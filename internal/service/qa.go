package service

import (
	"context"
	"strings"
	"time"

	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/telemetry"
)

// ScopeMode selects which of the user's documents a question is answered
// against.
type ScopeMode string

const (
	ScopeGlobal   ScopeMode = "global"
	ScopeDocument ScopeMode = "document"
	ScopeCustom   ScopeMode = "custom"
)

// Scope is the set of documents a question is answered against. Documents
// carries exactly one filename for ScopeDocument and one or more for
// ScopeCustom; it is ignored for ScopeGlobal.
type Scope struct {
	Mode      ScopeMode
	Documents []string
}

// Normalize validates the scope and fills in defaults. A document or custom
// scope without any document names cannot resolve to candidates and fails
// with the no-context error up front.
func (s Scope) Normalize() (Scope, error) {
	switch s.Mode {
	case "":
		return Scope{Mode: ScopeGlobal}, nil
	case ScopeGlobal:
		return Scope{Mode: ScopeGlobal}, nil
	case ScopeDocument:
		if len(s.Documents) == 0 || s.Documents[0] == "" {
			return s, domain.ErrNoContext
		}
		return Scope{Mode: ScopeDocument, Documents: s.Documents[:1]}, nil
	case ScopeCustom:
		if len(s.Documents) == 0 {
			return s, domain.ErrNoContext
		}
		return s, nil
	default:
		return s, domain.ErrInvalidScope
	}
}

// CompletionClient defines the interface for language model chat completion.
type CompletionClient interface {
	Complete(ctx context.Context, messages []domain.PromptMessage) (string, error)
}

// ConversationAppender records verified question/answer turns.
type ConversationAppender interface {
	AppendTurn(ctx context.Context, userID, question, answer string) error
}

// Answer is the result of a grounded question.
type Answer struct {
	Answer      string   `json:"answer"`
	UsedContext []string `json:"used_context"`
}

// QAService runs the retrieval-augmented answering pipeline: scope
// resolution, retrieval, prompt construction, the model call, post-hoc
// verification, and history append.
type QAService struct {
	docs          DocumentRepository
	retriever     *Retriever
	llm           CompletionClient
	conversations ConversationAppender
	questionLog   *QuestionLogBuffer
	topK          int
	timeout       time.Duration
}

// NewQAService creates a new QAService instance. questionLog may be nil.
func NewQAService(
	docs DocumentRepository,
	retriever *Retriever,
	llm CompletionClient,
	conversations ConversationAppender,
	questionLog *QuestionLogBuffer,
	topK int,
	timeout time.Duration,
) *QAService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QAService{
		docs:          docs,
		retriever:     retriever,
		llm:           llm,
		conversations: conversations,
		questionLog:   questionLog,
		topK:          topK,
		timeout:       timeout,
	}
}

// AnswerQuestion answers a question strictly from the user's documents in
// the requested scope. History is appended only after the model call and
// verification succeed, so a failed request leaves stored state unchanged
// and a retry cannot double-append.
func (s *QAService) AnswerQuestion(ctx context.Context, userID, question string, scope Scope) (*Answer, error) {
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	scope, err := scope.Normalize()
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "QAService.AnswerQuestion", telemetry.SpanAttributes{
		UserID:    userID,
		Scope:     string(scope.Mode),
		Operation: "answer_question",
	})
	defer span.End()

	candidates, err := s.docs.QueryChunksByScope(ctx, userID, scope)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoContext
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	top, err := s.retriever.Retrieve(upstreamCtx, question, candidates, s.topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	contextChunks := make([]string, len(top))
	for i, c := range top {
		contextChunks[i] = c.Content
	}

	raw, err := s.llm.Complete(upstreamCtx, BuildPrompt(contextChunks, question))
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	answer := VerifyAnswer(raw, contextChunks)

	if err := s.conversations.AppendTurn(ctx, userID, question, answer); err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.questionLog != nil {
		s.questionLog.Add(QuestionLogEntry{
			UserID:     userID,
			Question:   question,
			ScopeMode:  string(scope.Mode),
			ChunkCount: len(contextChunks),
			Overridden: answer != raw,
			DurationMs: int(time.Since(start).Milliseconds()),
			CreatedAt:  start.UTC(),
		})
	}

	return &Answer{Answer: answer, UsedContext: contextChunks}, nil
}
