package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/prashantforsure/BeFriend/internal/users"
)

var (
	ErrInsufficientCredits  = errors.New("credits: insufficient call credits")
	ErrSubscriptionRequired = errors.New("credits: premium subscription required")
)

// Guard enforces call-credit balance and premium-tier gating before any
// billable action.
//
// Both checks are advisory gates: a failed check aborts the action with no
// side effects. The authoritative credit mutation is ConsumeCredit, which
// must only run after the provider confirms the billable action (call
// placement) so failed placements are never charged.
type Guard struct {
	users users.Repository
}

func NewGuard(repo users.Repository) *Guard {
	return &Guard{users: repo}
}

// CheckCredits reports whether the user has at least one call credit left.
// It never mutates state.
func (g *Guard) CheckCredits(ctx context.Context, userID string) (bool, error) {
	n, err := g.users.CreditBalance(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("credits: balance lookup: %w", err)
	}
	return n > 0, nil
}

// ConsumeCredit atomically decrements the user's balance by one.
func (g *Guard) ConsumeCredit(ctx context.Context, userID string) error {
	err := g.users.DecrementCredit(ctx, userID)
	if errors.Is(err, users.ErrInsufficientCredits) {
		return ErrInsufficientCredits
	}
	return err
}

// CheckPremiumAccess reports whether the user may use a resource. Non-premium
// resources are always allowed; premium resources require a paid tier.
func (g *Guard) CheckPremiumAccess(ctx context.Context, userID string, resourceIsPremium bool) (bool, error) {
	if !resourceIsPremium {
		return true, nil
	}
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("credits: user lookup: %w", err)
	}
	return u.Tier != users.TierFree, nil
}
