package service

import (
	"context"
	"time"

	"github.com/askadoc/askadoc/internal/domain"
)

// ConversationRepository defines the repository interface for chat history
// persistence. GetActive returns an empty conversation (zero StartedAt, no
// turns) when the user has no active history yet.
type ConversationRepository interface {
	GetActive(ctx context.Context, userID string) (*domain.Conversation, error)
	UpsertActive(ctx context.Context, conv *domain.Conversation) error
	ResetActive(ctx context.Context, userID string, startedAt time.Time) error
	InsertArchive(ctx context.Context, archive *domain.ConversationArchive) error
	ListArchives(ctx context.Context, userID string) ([]*domain.ConversationArchive, error)
	GetArchiveByIndex(ctx context.Context, userID string, index int) (*domain.ConversationArchive, error)
}

// TurnPair is a question/answer pair from the active history.
type TurnPair struct {
	Question string `json:"user"`
	Answer   string `json:"assistant"`
}

// ConversationService manages a user's active chat history and its archives.
type ConversationService struct {
	repo ConversationRepository
	tx   TxRunner
	now  func() time.Time
}

// NewConversationService creates a new ConversationService instance
func NewConversationService(repo ConversationRepository, tx TxRunner) *ConversationService {
	return &ConversationService{
		repo: repo,
		tx:   tx,
		now:  time.Now,
	}
}

// NewConversationServiceWithClock creates a ConversationService with a fixed
// clock (for testing).
func NewConversationServiceWithClock(repo ConversationRepository, tx TxRunner, now func() time.Time) *ConversationService {
	return &ConversationService{repo: repo, tx: tx, now: now}
}

// AppendTurn appends a user turn followed by an assistant turn to the active
// history, both timestamped at append time. Concurrent appends from the same
// user are last-write-wins; strict ordering across racing requests is not
// guaranteed.
func (s *ConversationService) AppendTurn(ctx context.Context, userID, question, answer string) error {
	if userID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "user ID is required")
	}

	conv, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	conv.UserID = userID
	if conv.StartedAt.IsZero() {
		conv.StartedAt = now
	}
	conv.Turns = append(conv.Turns,
		domain.ConversationTurn{Role: domain.RoleUser, Content: question, Timestamp: now},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: answer, Timestamp: now},
	)

	return s.repo.UpsertActive(ctx, conv)
}

// ActivePairs returns the active history as question/answer pairs.
func (s *ConversationService) ActivePairs(ctx context.Context, userID string) ([]TurnPair, error) {
	conv, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	pairs := make([]TurnPair, 0, len(conv.Turns)/2)
	for i, turn := range conv.Turns {
		if turn.Role != domain.RoleUser || i+1 >= len(conv.Turns) {
			continue
		}
		if next := conv.Turns[i+1]; next.Role == domain.RoleAssistant {
			pairs = append(pairs, TurnPair{Question: turn.Content, Answer: next.Content})
		}
	}
	return pairs, nil
}

// StartNewSession archives a non-empty active history and resets it. The
// history is moved inside one transaction, never cleared before the archive
// row exists. Calling this on an already-empty history only refreshes the
// session start timestamp; no empty archive entries are ever created.
func (s *ConversationService) StartNewSession(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "user ID is required")
	}

	now := s.now().UTC()
	return s.tx.WithTx(ctx, func(repos TxRepositories) error {
		conv, err := repos.Conversations().GetActive(ctx, userID)
		if err != nil {
			return err
		}

		if len(conv.Turns) > 0 {
			startedAt := conv.StartedAt
			if startedAt.IsZero() {
				startedAt = conv.Turns[0].Timestamp
			}
			archive := &domain.ConversationArchive{
				UserID:    userID,
				StartedAt: startedAt,
				EndedAt:   now,
				Turns:     conv.Turns,
			}
			if err := repos.Conversations().InsertArchive(ctx, archive); err != nil {
				return err
			}
		}

		return repos.Conversations().ResetActive(ctx, userID, now)
	})
}

// ListArchives returns previews of the user's archived sessions, oldest
// first, without the full turn payload.
func (s *ConversationService) ListArchives(ctx context.Context, userID string) ([]*domain.ArchivePreview, error) {
	archives, err := s.repo.ListArchives(ctx, userID)
	if err != nil {
		return nil, err
	}

	previews := make([]*domain.ArchivePreview, 0, len(archives))
	for _, a := range archives {
		if len(a.Turns) == 0 {
			continue
		}
		previews = append(previews, &domain.ArchivePreview{
			StartedAt:    a.StartedAt,
			EndedAt:      a.EndedAt,
			TurnCount:    len(a.Turns),
			FirstContent: a.Turns[0].Content,
			LastContent:  a.Turns[len(a.Turns)-1].Content,
		})
	}
	return previews, nil
}

// GetArchive returns a full archived session by its position in the archive
// list, oldest first.
func (s *ConversationService) GetArchive(ctx context.Context, userID string, index int) (*domain.ConversationArchive, error) {
	if index < 0 {
		return nil, domain.ErrArchiveNotFound
	}
	return s.repo.GetArchiveByIndex(ctx, userID, index)
}
