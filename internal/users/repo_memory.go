package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu    sync.Mutex
	users map[string]User
	prefs map[string]Preferences
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users: make(map[string]User),
		prefs: make(map[string]Preferences),
	}
}

func (r *MemoryRepo) Put(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) Preferences(ctx context.Context, userID string) (Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.prefs[userID]; ok {
		return p, nil
	}
	return Preferences{UserID: userID}, nil
}

func (r *MemoryRepo) SavePreferences(ctx context.Context, p Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	r.prefs[p.UserID] = p
	return nil
}

func (r *MemoryRepo) CreditBalance(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return u.CallCredits, nil
}

func (r *MemoryRepo) DecrementCredit(ctx context.Context, userID string) error {
	// The mutex plays the role of the SQL conditional update here: check and
	// decrement happen under one critical section.
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if u.CallCredits <= 0 {
		return ErrInsufficientCredits
	}
	u.CallCredits--
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return nil
}
