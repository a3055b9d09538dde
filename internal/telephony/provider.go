package telephony

import (
	"context"
	"errors"
)

var (
	// ErrCallNotFound is returned when the provider does not know the call id.
	ErrCallNotFound = errors.New("telephony: call not found")
	// ErrProviderRejected is returned when the provider refused to place the call.
	ErrProviderRejected = errors.New("telephony: provider rejected call")
)

// Provider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider SDK or REST calls outside telephony adapters.
// - Keep request/response types provider-agnostic; raw provider payloads stay
//   inside the adapter.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// CreateCall places an outbound call and returns the provider call id.
	// The provider invokes VoiceURL when the callee answers and posts
	// lifecycle events to StatusCallbackURL.
	CreateCall(ctx context.Context, req CreateCallRequest) (CreateCallResult, error)

	// EndCall asks the provider to hang up an in-flight call. Terminal state
	// still arrives through the status callback.
	EndCall(ctx context.Context, providerCallID string) error
}

// CreateCallRequest carries everything the adapter needs to place a call.
// UserID / PersonaID / ConversationID ride along as URL parameters so the
// voice webhook can recover context without a lookup.
type CreateCallRequest struct {
	To   string `json:"to"`
	From string `json:"from"`

	UserID         string `json:"user_id"`
	PersonaID      string `json:"persona_id"`
	ConversationID string `json:"conversation_id"`

	VoiceURL          string `json:"voice_url"`
	StatusCallbackURL string `json:"status_callback_url"`
}

// CreateCallResult is the adapter response after the provider accepted a call.
type CreateCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`

	// Status is the provider's initial status string, e.g. "queued".
	Status string `json:"status"`
}
