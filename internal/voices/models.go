package voices

import "time"

// VoiceProfile identifies a synthesis voice at a speech provider.
// Reference data, read-only for this service.
type VoiceProfile struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Provider names the synthesis backend (e.g. "elevenlabs").
	Provider string `json:"provider" db:"provider"`
	// ProviderVoiceID is the provider-scoped voice identifier.
	ProviderVoiceID string `json:"provider_voice_id" db:"provider_voice_id"`

	IsDefault bool `json:"is_default" db:"is_default"`
	IsPremium bool `json:"is_premium" db:"is_premium"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
