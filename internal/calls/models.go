package calls

import "time"

// CallLog records one outbound persona call from initiation to its terminal
// state.
//
// Provider-specific identity lives in ProviderCallID (e.g. a Twilio CallSid);
// the core model stays provider-agnostic.
type CallLog struct {
	ID             string `json:"id" db:"id"`
	UserID         string `json:"user_id" db:"user_id"`
	PersonaID      string `json:"persona_id" db:"persona_id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`

	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	Direction Direction `json:"direction" db:"direction"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	// DurationSeconds is reported by the provider on the terminal callback.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// ErrorMessage carries the provider failure reason on failed calls.
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusBusy       CallStatus = "busy"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusCanceled   CallStatus = "canceled"
)

// transitions is the full set of legal status moves. Anything absent is
// rejected, including moves out of a terminal state. The provider may drop
// intermediate events, so terminal statuses are reachable while the call is
// still initiated.
var transitions = map[CallStatus][]CallStatus{
	CallStatusInitiated: {
		CallStatusRinging,
		CallStatusInProgress,
		CallStatusCompleted,
		CallStatusFailed,
		CallStatusBusy,
		CallStatusNoAnswer,
		CallStatusCanceled,
	},
	CallStatusRinging: {
		CallStatusInProgress,
		CallStatusCompleted,
		CallStatusFailed,
		CallStatusBusy,
		CallStatusNoAnswer,
		CallStatusCanceled,
	},
	CallStatusInProgress: {
		CallStatusCompleted,
		CallStatusFailed,
		CallStatusCanceled,
	},
}

// CanTransition reports whether from -> to is a legal move. Same-state moves
// are allowed so replayed provider callbacks are harmless.
func CanTransition(from, to CallStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status ends the call lifecycle.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s CallStatus) Valid() bool {
	switch s {
	case CallStatusInitiated, CallStatusRinging, CallStatusInProgress,
		CallStatusCompleted, CallStatusFailed, CallStatusBusy,
		CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// MapProviderStatus translates a provider status string to the internal enum.
// Twilio's "queued" maps to initiated and "answered"/"in-progress" to
// in_progress. Unknown strings return false.
func MapProviderStatus(s string) (CallStatus, bool) {
	switch s {
	case "queued", "initiated":
		return CallStatusInitiated, true
	case "ringing":
		return CallStatusRinging, true
	case "answered", "in-progress":
		return CallStatusInProgress, true
	case "completed":
		return CallStatusCompleted, true
	case "failed":
		return CallStatusFailed, true
	case "busy":
		return CallStatusBusy, true
	case "no-answer":
		return CallStatusNoAnswer, true
	case "canceled":
		return CallStatusCanceled, true
	}
	return "", false
}
