package conversations

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("conversations: not found")

// Repository is the persistence contract for conversations and messages.
//
// Messages are append-only: no update or delete methods are provided, by
// contract. AttachAudio is the one post-insert enrichment allowed.
type Repository interface {
	Create(ctx context.Context, c Conversation) error
	GetByID(ctx context.Context, id string) (Conversation, error)

	// FindOpen returns the most recent conversation for the user/persona
	// pair that has not ended and is not archived.
	FindOpen(ctx context.Context, userID, personaID string) (Conversation, bool, error)

	// SetEnded stamps ended_at, but only if it is still null. Returns
	// whether the stamp was applied, making replayed terminal callbacks
	// safe to process.
	SetEnded(ctx context.Context, id string, at time.Time) (bool, error)

	// Touch refreshes the conversation's last-activity timestamp.
	Touch(ctx context.Context, id string, at time.Time) error

	InsertMessage(ctx context.Context, m Message) error
	AttachAudio(ctx context.Context, messageID, audioURL string, durationSeconds int) error

	// RecentMessages returns up to limit messages, newest first. Callers
	// wanting chronological order reverse the slice (the Store does).
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
