package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound            = errors.New("users: not found")
	ErrInsufficientCredits = errors.New("users: insufficient credits")
)

// Repository is the persistence contract for users and their preferences.
type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)

	// Preferences returns the stored row, or zero-valued defaults for the
	// user when none exists yet (lazy creation happens on first save).
	Preferences(ctx context.Context, userID string) (Preferences, error)
	SavePreferences(ctx context.Context, p Preferences) error

	// CreditBalance reads the current balance without mutating it.
	CreditBalance(ctx context.Context, userID string) (int, error)

	// DecrementCredit atomically decrements the balance by one, guarded so
	// concurrent callers cannot take the balance below zero. Returns
	// ErrInsufficientCredits when no credit remains.
	DecrementCredit(ctx context.Context, userID string) error
}
