package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is the fixed history window used when building prompts.
// Callers must not assume unbounded history is available.
const DefaultWindow = 10

// Store provides the append-only conversation history operations used by the
// turn pipeline and call manager.
type Store struct {
	repo  Repository
	clock func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, clock: time.Now}
}

// Begin creates a new conversation thread.
func (s *Store) Begin(ctx context.Context, userID, personaID string) (Conversation, error) {
	now := s.clock().UTC()
	c := Conversation{
		ID:             uuid.NewString(),
		UserID:         userID,
		PersonaID:      personaID,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Conversation{}, fmt.Errorf("conversations: create: %w", err)
	}
	return c, nil
}

// Resume returns the open conversation for the user/persona pair, creating a
// fresh one when none is open.
func (s *Store) Resume(ctx context.Context, userID, personaID string) (Conversation, error) {
	c, found, err := s.repo.FindOpen(ctx, userID, personaID)
	if err != nil {
		return Conversation{}, fmt.Errorf("conversations: find open: %w", err)
	}
	if found {
		return c, nil
	}
	return s.Begin(ctx, userID, personaID)
}

func (s *Store) Get(ctx context.Context, id string) (Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

// Append inserts a message and refreshes the conversation's last activity.
func (s *Store) Append(ctx context.Context, conversationID string, role Role, content string) (Message, error) {
	now := s.clock().UTC()
	m := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	if err := s.repo.InsertMessage(ctx, m); err != nil {
		return Message{}, fmt.Errorf("conversations: append: %w", err)
	}
	// Last-activity refresh is best-effort relative to the insert; the two
	// are not transactional and the window read tolerates that.
	if err := s.repo.Touch(ctx, conversationID, now); err != nil {
		return Message{}, fmt.Errorf("conversations: touch: %w", err)
	}
	return m, nil
}

// AttachAudio records the synthesized audio reference on an existing message.
func (s *Store) AttachAudio(ctx context.Context, messageID, audioURL string, durationSeconds int) error {
	return s.repo.AttachAudio(ctx, messageID, audioURL, durationSeconds)
}

// RecentWindow returns up to limit most recent messages in chronological
// order (oldest first).
func (s *Store) RecentWindow(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}
	msgs, err := s.repo.RecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversations: recent window: %w", err)
	}
	// Repo returns newest first; prompts want oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// End stamps the conversation's end time once. Replays report applied=false.
func (s *Store) End(ctx context.Context, conversationID string) (bool, error) {
	return s.repo.SetEnded(ctx, conversationID, s.clock().UTC())
}
