package users

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryRepo_DecrementCredit(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Put(User{ID: "u1", Tier: TierFree, CallCredits: 1})

	if err := repo.DecrementCredit(context.Background(), "u1"); err != nil {
		t.Fatalf("expected decrement to succeed, got %v", err)
	}
	if err := repo.DecrementCredit(context.Background(), "u1"); err != ErrInsufficientCredits {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	n, err := repo.CreditBalance(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected balance, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected balance 0, got %d", n)
	}
}

func TestMemoryRepo_DecrementCredit_ConcurrentNeverNegative(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Put(User{ID: "u1", CallCredits: 3})

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DecrementCredit(context.Background(), "u1"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Fatalf("expected exactly 3 successful decrements, got %d", succeeded)
	}
	n, _ := repo.CreditBalance(context.Background(), "u1")
	if n != 0 {
		t.Fatalf("expected balance 0, got %d", n)
	}
}

func TestMemoryRepo_PreferencesDefaultsWhenAbsent(t *testing.T) {
	repo := NewMemoryRepo()
	p, err := repo.Preferences(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if p.UserID != "u1" || p.PreferredVoiceID != "" {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
