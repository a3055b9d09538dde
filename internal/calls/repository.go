package calls

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no call log matches the lookup.
	ErrNotFound = errors.New("calls: call not found")
)

// Repository is the persistence contract for call logs.
type Repository interface {
	Create(ctx context.Context, c CallLog) error
	GetByID(ctx context.Context, id string) (CallLog, error)

	// GetByProviderCallID resolves the provider's call identifier to our
	// record. Status callbacks only carry the provider id.
	GetByProviderCallID(ctx context.Context, providerCallID string) (CallLog, error)

	// UpdateStatus moves the call to a non-terminal status.
	UpdateStatus(ctx context.Context, id string, status CallStatus, at time.Time) error

	// Finalize stamps the terminal status together with ended_at, duration
	// and the optional error message, but only if ended_at is still null.
	// Returns whether the stamp was applied, making replayed terminal
	// callbacks safe to process.
	Finalize(ctx context.Context, id string, status CallStatus, endedAt time.Time, durationSeconds int, errorMessage string) (bool, error)

	// CountActive counts the user's calls not yet in a terminal state.
	CountActive(ctx context.Context, userID string) (int, error)
}
