package voices

import (
	"context"
	"testing"

	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/users"
)

func fixtures(t *testing.T) (*MemoryRepo, *users.MemoryRepo) {
	t.Helper()
	voiceRepo := NewMemoryRepo()
	voiceRepo.Put(VoiceProfile{ID: "v-explicit", Provider: "elevenlabs", ProviderVoiceID: "e1"})
	voiceRepo.Put(VoiceProfile{ID: "v-persona", Provider: "elevenlabs", ProviderVoiceID: "e2"})
	voiceRepo.Put(VoiceProfile{ID: "v-pref", Provider: "elevenlabs", ProviderVoiceID: "e3"})
	voiceRepo.Put(VoiceProfile{ID: "v-default", Provider: "elevenlabs", ProviderVoiceID: "e4", IsDefault: true})

	userRepo := users.NewMemoryRepo()
	userRepo.Put(users.User{ID: "u1", Tier: users.TierFree})
	if err := userRepo.SavePreferences(context.Background(), users.Preferences{UserID: "u1", PreferredVoiceID: "v-pref"}); err != nil {
		t.Fatalf("save prefs: %v", err)
	}
	return voiceRepo, userRepo
}

func TestResolver_FallbackOrderIsDeterministic(t *testing.T) {
	voiceRepo, userRepo := fixtures(t)
	r := NewResolver(voiceRepo, userRepo)
	persona := personas.Persona{ID: "p1", DefaultVoiceID: "v-persona"}

	// Explicit id wins over everything.
	v, err := r.Resolve(context.Background(), "v-explicit", persona, "u1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.ID != "v-explicit" {
		t.Fatalf("expected explicit voice, got %q", v.ID)
	}

	// Without explicit id the persona voice wins.
	v, err = r.Resolve(context.Background(), "", persona, "u1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.ID != "v-persona" {
		t.Fatalf("expected persona voice, got %q", v.ID)
	}

	// Without a persona voice the user preference wins.
	v, err = r.Resolve(context.Background(), "", personas.Persona{ID: "p1"}, "u1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.ID != "v-pref" {
		t.Fatalf("expected preferred voice, got %q", v.ID)
	}

	// With nothing else set the store default wins.
	v, err = r.Resolve(context.Background(), "", personas.Persona{ID: "p1"}, "u2")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.ID != "v-default" {
		t.Fatalf("expected default voice, got %q", v.ID)
	}
}

func TestResolver_DanglingExplicitIDFallsThrough(t *testing.T) {
	voiceRepo, userRepo := fixtures(t)
	r := NewResolver(voiceRepo, userRepo)

	v, err := r.Resolve(context.Background(), "v-missing", personas.Persona{DefaultVoiceID: "v-persona"}, "u1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if v.ID != "v-persona" {
		t.Fatalf("expected fall-through to persona voice, got %q", v.ID)
	}
}

func TestResolver_NoVoiceAvailable(t *testing.T) {
	voiceRepo := NewMemoryRepo()
	userRepo := users.NewMemoryRepo()
	r := NewResolver(voiceRepo, userRepo)

	_, err := r.Resolve(context.Background(), "", personas.Persona{}, "u1")
	if err != ErrNoVoiceAvailable {
		t.Fatalf("expected ErrNoVoiceAvailable, got %v", err)
	}
}
