package service

import (
	"context"

	"github.com/google/uuid"
)

// TxRepositories provides repository access within a transaction
type TxRepositories interface {
	Documents() DocumentRepository
	Conversations() ConversationRepository
}

// TxRunner runs a function within a database transaction
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
