package conversations

import "time"

// Conversation is one chat/call thread between a user and a persona.
//
// Lifecycle invariant: EndedAt is set exactly once, when the most recent
// associated call completes or the thread is explicitly ended.
type Conversation struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	PersonaID string `json:"persona_id" db:"persona_id"`

	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	LastActivityAt time.Time  `json:"last_activity_at" db:"last_activity_at"`

	IsArchived bool `json:"is_archived" db:"is_archived"`
}

// Message is one turn in a conversation.
//
// Append-only: the core never mutates or deletes messages. The single
// exception is attaching a synthesized audio reference to an assistant
// message after the fact, which adds data without rewriting content.
type Message struct {
	ID             string `json:"id" db:"id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`

	Role    Role   `json:"role" db:"role"`
	Content string `json:"content" db:"content"`

	AudioURL        string `json:"audio_url,omitempty" db:"audio_url"`
	DurationSeconds int    `json:"duration_seconds,omitempty" db:"duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
