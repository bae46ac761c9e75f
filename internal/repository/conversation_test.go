//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/testutil"
)

func turn(role domain.Role, content string, at time.Time) domain.ConversationTurn {
	return domain.ConversationTurn{Role: role, Content: content, Timestamp: at}
}

func TestConversationRepository_ActiveHistory(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	convRepo := NewConversationRepository(pool)
	user := createTestUser(ctx, t, userRepo)

	t.Run("missing history reads as empty", func(t *testing.T) {
		conv, err := convRepo.GetActive(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, conv.UserID)
		assert.Empty(t, conv.Turns)
		assert.True(t, conv.StartedAt.IsZero())
	})

	t.Run("upsert round-trips turns", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		conv := &domain.Conversation{
			UserID:    user.ID,
			StartedAt: now,
			Turns: []domain.ConversationTurn{
				turn(domain.RoleUser, "what color is the sky?", now),
				turn(domain.RoleAssistant, "The sky is blue.", now),
			},
		}
		require.NoError(t, convRepo.UpsertActive(ctx, conv))

		got, err := convRepo.GetActive(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, got.Turns, 2)
		assert.Equal(t, domain.RoleUser, got.Turns[0].Role)
		assert.Equal(t, "The sky is blue.", got.Turns[1].Content)
		assert.True(t, got.StartedAt.Equal(now))
	})

	t.Run("reset clears turns and stamps new start", func(t *testing.T) {
		newStart := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, convRepo.ResetActive(ctx, user.ID, newStart))

		got, err := convRepo.GetActive(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Turns)
		assert.True(t, got.StartedAt.Equal(newStart))
	})
}

func TestConversationRepository_Archives(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	convRepo := NewConversationRepository(pool)
	user := createTestUser(ctx, t, userRepo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		started := base.Add(time.Duration(i) * time.Hour)
		archive := &domain.ConversationArchive{
			UserID:    user.ID,
			StartedAt: started,
			EndedAt:   started.Add(30 * time.Minute),
			Turns: []domain.ConversationTurn{
				turn(domain.RoleUser, "question", started),
				turn(domain.RoleAssistant, "answer", started),
			},
		}
		require.NoError(t, convRepo.InsertArchive(ctx, archive))
	}

	t.Run("list returns archives oldest first", func(t *testing.T) {
		archives, err := convRepo.ListArchives(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, archives, 3)
		assert.True(t, archives[0].StartedAt.Before(archives[2].StartedAt))
	})

	t.Run("get by index", func(t *testing.T) {
		archive, err := convRepo.GetArchiveByIndex(ctx, user.ID, 1)
		require.NoError(t, err)
		assert.True(t, archive.StartedAt.Equal(base.Add(time.Hour)))
		require.Len(t, archive.Turns, 2)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := convRepo.GetArchiveByIndex(ctx, user.ID, 99)
		assert.ErrorIs(t, err, domain.ErrArchiveNotFound)
	})
}
