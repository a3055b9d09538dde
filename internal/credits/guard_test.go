package credits

import (
	"context"
	"testing"

	"github.com/prashantforsure/BeFriend/internal/users"
)

func TestGuard_CheckCredits(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Put(users.User{ID: "u1", CallCredits: 1})
	repo.Put(users.User{ID: "u2", CallCredits: 0})
	g := NewGuard(repo)

	ok, err := g.CheckCredits(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("expected allowed, got ok=%v err=%v", ok, err)
	}
	ok, err = g.CheckCredits(context.Background(), "u2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("expected zero balance to be denied")
	}
}

func TestGuard_CheckCredits_DoesNotMutate(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Put(users.User{ID: "u1", CallCredits: 2})
	g := NewGuard(repo)

	for i := 0; i < 5; i++ {
		if _, err := g.CheckCredits(context.Background(), "u1"); err != nil {
			t.Fatalf("check failed: %v", err)
		}
	}
	n, _ := repo.CreditBalance(context.Background(), "u1")
	if n != 2 {
		t.Fatalf("expected balance unchanged at 2, got %d", n)
	}
}

func TestGuard_ConsumeCredit_Exhaustion(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Put(users.User{ID: "u1", CallCredits: 1})
	g := NewGuard(repo)

	if err := g.ConsumeCredit(context.Background(), "u1"); err != nil {
		t.Fatalf("expected consume to succeed, got %v", err)
	}
	if err := g.ConsumeCredit(context.Background(), "u1"); err != ErrInsufficientCredits {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
}

func TestGuard_CheckPremiumAccess(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Put(users.User{ID: "free", Tier: users.TierFree})
	repo.Put(users.User{ID: "premium", Tier: users.TierPremium})
	repo.Put(users.User{ID: "business", Tier: users.TierBusiness})
	g := NewGuard(repo)

	cases := []struct {
		userID    string
		isPremium bool
		want      bool
	}{
		{"free", false, true},
		{"free", true, false},
		{"premium", true, true},
		{"business", true, true},
	}
	for _, tc := range cases {
		got, err := g.CheckPremiumAccess(context.Background(), tc.userID, tc.isPremium)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.userID, err)
		}
		if got != tc.want {
			t.Fatalf("%s premium=%v: expected %v, got %v", tc.userID, tc.isPremium, tc.want, got)
		}
	}
}
