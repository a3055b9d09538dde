package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local development.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]CallLog
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: make(map[string]CallLog)}
}

func (r *MemoryRepo) Create(ctx context.Context, c CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.ProviderCallID == providerCallID {
			return c, nil
		}
	}
	return CallLog{}, ErrNotFound
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = at
	r.calls[id] = c
	return nil
}

func (r *MemoryRepo) Finalize(ctx context.Context, id string, status CallStatus, endedAt time.Time, durationSeconds int, errorMessage string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.EndedAt != nil {
		return false, nil
	}
	at := endedAt
	c.Status = status
	c.EndedAt = &at
	c.DurationSeconds = durationSeconds
	c.ErrorMessage = errorMessage
	c.UpdatedAt = endedAt
	r.calls[id] = c
	return true, nil
}

func (r *MemoryRepo) CountActive(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.UserID == userID && c.EndedAt == nil {
			n++
		}
	}
	return n, nil
}
