package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askadoc/askadoc/internal/domain"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*domain.User), byEmail: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	return users, nil
}

type memKeyRepo struct {
	byID   map[string]*domain.APIKey
	byHash map[string]*domain.APIKey
}

func newMemKeyRepo() *memKeyRepo {
	return &memKeyRepo{byID: make(map[string]*domain.APIKey), byHash: make(map[string]*domain.APIKey)}
}

func (r *memKeyRepo) Create(_ context.Context, key *domain.APIKey) error {
	r.byID[key.ID] = key
	r.byHash[key.KeyHash] = key
	return nil
}

func (r *memKeyRepo) GetByID(_ context.Context, id string) (*domain.APIKey, error) {
	if k, ok := r.byID[id]; ok {
		return k, nil
	}
	return nil, domain.ErrAPIKeyNotFound
}

func (r *memKeyRepo) GetByHash(_ context.Context, hash string) (*domain.APIKey, error) {
	if k, ok := r.byHash[hash]; ok {
		return k, nil
	}
	return nil, domain.ErrAPIKeyNotFound
}

func (r *memKeyRepo) GetByUserID(_ context.Context, userID string) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	for _, k := range r.byID {
		if k.UserID == userID {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (r *memKeyRepo) Revoke(_ context.Context, id string) error {
	k, ok := r.byID[id]
	if !ok {
		return domain.ErrAPIKeyNotFound
	}
	now := k.CreatedAt
	k.RevokedAt = &now
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memUserRepo, *memKeyRepo) {
	t.Helper()

	users := newMemUserRepo()
	keys := newMemKeyRepo()
	return NewAuthService(users, keys, &seqUUIDGen{}), users, keys
}

func TestCreateUser_NormalizesEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "  Alice@Example.COM  ", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEmpty(t, user.ID)
}

func TestCreateUser_Duplicate(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), "ALICE@example.com", "")
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestCreateUser_RequiresEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestCreateUser_RejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.CreateUser(context.Background(), "not-an-email", "")
	assert.Error(t, err)
}

func TestCreateAPIKey_ReturnsValidToken(t *testing.T) {
	svc, _, keys := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	token, err := svc.CreateAPIKey(context.Background(), user.ID, "laptop")
	require.NoError(t, err)

	assert.True(t, IsValidAPIToken(token))
	assert.True(t, strings.HasPrefix(token, "ask_"))

	// Only the hash is stored, never the token itself
	for _, k := range keys.byID {
		assert.NotEqual(t, token, k.KeyHash)
		assert.NotContains(t, k.KeyHash, "ask_")
	}
}

func TestCreateAPIKey_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.CreateAPIKey(context.Background(), "missing", "laptop")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateAPIKey_RequiresName(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	_, err = svc.CreateAPIKey(context.Background(), user.ID, "")
	assert.Error(t, err)
}

func TestValidateAPIKey_RoundTrip(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	token, err := svc.CreateAPIKey(context.Background(), user.ID, "laptop")
	require.NoError(t, err)

	gotUserID, err := svc.ValidateAPIKey(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUserID)
}

func TestValidateAPIKey_UnknownToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ValidateAPIKey(context.Background(), "ask_"+strings.Repeat("0", 64))
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestValidateAPIKey_MalformedToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	for _, token := range []string{"", "ask_", "nope", "ask_short", "sk_" + strings.Repeat("0", 64)} {
		_, err := svc.ValidateAPIKey(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey, token)
	}
}

func TestValidateAPIKey_Revoked(t *testing.T) {
	svc, _, keys := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	token, err := svc.CreateAPIKey(context.Background(), user.ID, "laptop")
	require.NoError(t, err)

	list, err := svc.ListAPIKeys(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, keys.Revoke(context.Background(), list[0].ID))

	_, err = svc.ValidateAPIKey(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
}

func TestCreateAPIKeyWithToken_PinsToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	token := "ask_" + strings.Repeat("ab", 32)
	require.NoError(t, svc.CreateAPIKeyWithToken(context.Background(), user.ID, "bootstrap", token))

	gotUserID, err := svc.ValidateAPIKey(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUserID)

	key, err := svc.GetAPIKeyByHash(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "bootstrap", key.Name)
}

func TestCreateAPIKeyWithToken_RejectsBadFormat(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "")
	require.NoError(t, err)

	err = svc.CreateAPIKeyWithToken(context.Background(), user.ID, "bootstrap", "not-a-token")
	assert.Error(t, err)
}

func TestIsValidAPIToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid lowercase", "ask_" + strings.Repeat("0123456789abcdef", 4), true},
		{"valid uppercase", "ask_" + strings.Repeat("0123456789ABCDEF", 4), true},
		{"wrong prefix", "sk_" + strings.Repeat("0", 64), false},
		{"too short", "ask_" + strings.Repeat("0", 63), false},
		{"too long", "ask_" + strings.Repeat("0", 65), false},
		{"non-hex", "ask_" + strings.Repeat("g", 64), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAPIToken(tt.token))
		})
	}
}
