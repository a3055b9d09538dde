package users

import "time"

// User is the account owning conversations, call logs and preferences.
//
// Credit invariant: CallCredits never goes below zero. The only mutation path
// is Repository.DecrementCredit, which is a conditional atomic decrement at
// the store, never a read-then-write from application memory.
type User struct {
	ID          string `json:"id" db:"id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Name        string `json:"name,omitempty" db:"name"`

	Tier        SubscriptionTier `json:"tier" db:"tier"`
	CallCredits int              `json:"call_credits" db:"call_credits"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierPremium  SubscriptionTier = "premium"
	TierBusiness SubscriptionTier = "business"
)

// Preferences are per-user defaults. One row per user, created lazily:
// a user without a stored row gets the zero-valued defaults.
type Preferences struct {
	UserID string `json:"user_id" db:"user_id"`

	DefaultPersonaID string `json:"default_persona_id,omitempty" db:"default_persona_id"`
	PreferredVoiceID string `json:"preferred_voice_id,omitempty" db:"preferred_voice_id"`

	// MaxCallDurationSeconds bounds outbound call length; 0 means provider default.
	MaxCallDurationSeconds int  `json:"max_call_duration_seconds" db:"max_call_duration_seconds"`
	AutoRenew              bool `json:"auto_renew" db:"auto_renew"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
