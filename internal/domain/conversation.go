package domain

import (
	"fmt"
	"time"
)

// Role identifies the author of a conversation turn or prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PromptMessage is a single message sent to the language model.
type PromptMessage struct {
	Role    Role
	Content string
}

// ConversationTurn is a single timestamped turn in a user's chat history.
// Turns are appended in strict user/assistant pairs.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a user's active chat history for the current session.
type Conversation struct {
	UserID    string
	StartedAt time.Time
	Turns     []ConversationTurn
}

// ConversationArchive is a frozen copy of a prior active history, created
// when a new session is started while the active history is non-empty.
type ConversationArchive struct {
	UserID    string
	StartedAt time.Time
	EndedAt   time.Time
	Turns     []ConversationTurn
}

// ArchivePreview summarizes an archived session without its full payload.
type ArchivePreview struct {
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	TurnCount    int       `json:"turn_count"`
	FirstContent string    `json:"first_content"`
	LastContent  string    `json:"last_content"`
}

// ValidateTurns checks that a turn sequence alternates user/assistant
// starting with a user turn.
func ValidateTurns(turns []ConversationTurn) error {
	for i, turn := range turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if turn.Role != want {
			return fmt.Errorf("turn %d has role %q, expected %q", i, turn.Role, want)
		}
	}
	return nil
}
