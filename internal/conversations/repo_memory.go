package conversations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests.
type MemoryRepo struct {
	mu            sync.Mutex
	conversations map[string]Conversation
	messages      []Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{conversations: make(map[string]Conversation)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) FindOpen(ctx context.Context, userID, personaID string) (Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best Conversation
	found := false
	for _, c := range r.conversations {
		if c.UserID != userID || c.PersonaID != personaID || c.EndedAt != nil || c.IsArchived {
			continue
		}
		if !found || c.LastActivityAt.After(best.LastActivityAt) {
			best = c
			found = true
		}
	}
	return best, found, nil
}

func (r *MemoryRepo) SetEnded(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.EndedAt != nil {
		return false, nil
	}
	c.EndedAt = &at
	r.conversations[id] = c
	return true, nil
}

func (r *MemoryRepo) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.LastActivityAt = at
	r.conversations[id] = c
	return nil
}

func (r *MemoryRepo) InsertMessage(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryRepo) AttachAudio(ctx context.Context, messageID, audioURL string, durationSeconds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == messageID {
			r.messages[i].AudioURL = audioURL
			r.messages[i].DurationSeconds = durationSeconds
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	// Newest first, like the SQL implementation.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
