package voices

import (
	"context"
	"errors"
	"fmt"

	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/users"
)

var ErrNoVoiceAvailable = errors.New("voices: no voice available")

// Resolver picks the synthesis voice for an utterance.
//
// The fallback chain is an explicit ordered list of strategies, evaluated in
// priority order; the first one that finds a voice wins:
//
//  1. caller-supplied voice id
//  2. the persona's linked voice
//  3. the user's preferred voice
//  4. the store default
//
// The resolver is tier-agnostic: it only finds candidates. Premium gating on
// the resolved voice is the caller's responsibility (see internal/credits).
type Resolver struct {
	voices Repository
	users  users.Repository
}

func NewResolver(voiceRepo Repository, userRepo users.Repository) *Resolver {
	return &Resolver{voices: voiceRepo, users: userRepo}
}

// strategy returns (voice, found, error). A lookup miss is "continue", not
// an error; only infrastructure failures stop the chain.
type strategy func(ctx context.Context) (VoiceProfile, bool, error)

func (r *Resolver) Resolve(ctx context.Context, explicitVoiceID string, persona personas.Persona, userID string) (VoiceProfile, error) {
	chain := []strategy{
		r.byExplicitID(explicitVoiceID),
		r.byPersona(persona),
		r.byUserPreference(userID),
		r.byStoreDefault(),
	}

	for _, s := range chain {
		v, found, err := s(ctx)
		if err != nil {
			return VoiceProfile{}, err
		}
		if found {
			return v, nil
		}
	}
	return VoiceProfile{}, ErrNoVoiceAvailable
}

func (r *Resolver) byExplicitID(id string) strategy {
	return func(ctx context.Context) (VoiceProfile, bool, error) {
		if id == "" {
			return VoiceProfile{}, false, nil
		}
		return r.lookup(ctx, id)
	}
}

func (r *Resolver) byPersona(p personas.Persona) strategy {
	return func(ctx context.Context) (VoiceProfile, bool, error) {
		if p.DefaultVoiceID == "" {
			return VoiceProfile{}, false, nil
		}
		return r.lookup(ctx, p.DefaultVoiceID)
	}
}

func (r *Resolver) byUserPreference(userID string) strategy {
	return func(ctx context.Context) (VoiceProfile, bool, error) {
		if userID == "" {
			return VoiceProfile{}, false, nil
		}
		prefs, err := r.users.Preferences(ctx, userID)
		if err != nil {
			return VoiceProfile{}, false, fmt.Errorf("voices: preferences lookup: %w", err)
		}
		if prefs.PreferredVoiceID == "" {
			return VoiceProfile{}, false, nil
		}
		return r.lookup(ctx, prefs.PreferredVoiceID)
	}
}

func (r *Resolver) byStoreDefault() strategy {
	return func(ctx context.Context) (VoiceProfile, bool, error) {
		v, err := r.voices.Default(ctx)
		if errors.Is(err, ErrNotFound) {
			return VoiceProfile{}, false, nil
		}
		if err != nil {
			return VoiceProfile{}, false, err
		}
		return v, true, nil
	}
}

func (r *Resolver) lookup(ctx context.Context, id string) (VoiceProfile, bool, error) {
	v, err := r.voices.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// A dangling id falls through to the next strategy.
		return VoiceProfile{}, false, nil
	}
	if err != nil {
		return VoiceProfile{}, false, err
	}
	return v, true, nil
}
