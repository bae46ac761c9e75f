package domain

import (
	"fmt"
	"strings"
	"time"
)

// User represents an account that owns documents and conversation history.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// APIKey grants a user programmatic access. Only the SHA-256 hash of the
// token is stored.
type APIKey struct {
	ID        string
	UserID    string
	Name      string
	KeyHash   string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// ValidateUser validates a User instance.
func ValidateUser(u *User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if u.Email == "" {
		return fmt.Errorf("user Email is required")
	}

	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("user Email is invalid: %s", u.Email)
	}

	return nil
}

// ValidateAPIKey validates an APIKey instance.
func ValidateAPIKey(k *APIKey) error {
	if k == nil {
		return fmt.Errorf("api key cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("api key ID is required")
	}

	if k.UserID == "" {
		return fmt.Errorf("api key UserID is required")
	}

	if k.KeyHash == "" {
		return fmt.Errorf("api key KeyHash is required")
	}

	return nil
}
