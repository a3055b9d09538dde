package personas

import "time"

// Persona is a reusable behavior profile applied to a conversation.
// Reference data: rows are mutated only by admin tooling, never by this
// service, so repositories expose reads only.
type Persona struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category,omitempty" db:"category"`

	// PromptTemplate is the system text prefixed to prompts when the
	// persona has memory enabled it is followed by conversation history.
	PromptTemplate string `json:"prompt_template" db:"prompt_template"`

	// DefaultVoiceID optionally links a synthesis voice. Empty means the
	// voice resolver falls through to user preference / store default.
	DefaultVoiceID string `json:"default_voice_id,omitempty" db:"default_voice_id"`

	IsPremium bool `json:"is_premium" db:"is_premium"`
	IsActive  bool `json:"is_active" db:"is_active"`

	// MemoryEnabled controls whether conversation history is included in
	// prompts built for this persona.
	MemoryEnabled bool `json:"memory_enabled" db:"memory_enabled"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
