package auth

import (
	"testing"
	"time"

	"github.com/prashantforsure/BeFriend/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "test-secret",
		JWTIssuer:      "befriend",
		JWTAudience:    "befriend-api",
		AccessTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("expected manager, got %v", err)
	}
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.Issue(now, "u1", "premium")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("expected user id u1, got %q", claims.UserID)
	}
	if claims.Tier != "premium" {
		t.Fatalf("expected tier premium, got %q", claims.Tier)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	m := newTestManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.Issue(now, "u1", "free")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := m.Verify(tok, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{JWTSecret: "different", AccessTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("expected manager, got %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := other.Issue(now, "u1", "free")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected signature error")
	}
}
