// Package ai defines the provider-agnostic contracts for the transcription,
// completion and speech-synthesis collaborators, plus adapters for the
// concrete backends.
//
// Rules:
// - No provider SDK calls outside these adapters.
// - Each boundary returns a structured result; callers never probe arbitrary
//   error shapes.
// - Requests carry a fixed per-call timeout; a timeout is a provider fault,
//   never retried here.
package ai

import (
	"context"
	"fmt"
	"io"
)

// ProviderFault is the structured failure half of a collaborator result.
type ProviderFault struct {
	// Provider names the failing backend ("openai", "elevenlabs", ...).
	Provider string `json:"provider"`
	// Kind is a coarse classification: "timeout", "api_error", "transport".
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// RawDetail preserves the provider payload for logs; never parsed by callers.
	RawDetail string `json:"raw_detail,omitempty"`
}

func (f *ProviderFault) Error() string {
	return fmt.Sprintf("ai: %s %s: %s", f.Provider, f.Kind, f.Message)
}

const (
	FaultKindTimeout   = "timeout"
	FaultKindAPIError  = "api_error"
	FaultKindTransport = "transport"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) TranscriptionResult
}

type TranscriptionRequest struct {
	// Audio is the recording payload; Filename hints the container format
	// to the provider (e.g. "turn.ogg").
	Audio    io.Reader
	Filename string
}

// TranscriptionResult reports either Text or a Fault, never both. The fault
// travels as data so the caller can decide whether to persist a partial turn.
type TranscriptionResult struct {
	Text  string         `json:"text,omitempty"`
	Fault *ProviderFault `json:"error,omitempty"`
}

// Completer produces the assistant's reply for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer converts assistant text into speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) SynthesisResult
}

type SynthesisRequest struct {
	Text string
	// ProviderVoiceID is the provider-scoped voice id from the resolved
	// VoiceProfile.
	ProviderVoiceID string
}

type SynthesisResult struct {
	Audio    []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
	// DurationSeconds is an estimate derived from the text when the
	// provider does not report one.
	DurationSeconds int            `json:"duration_seconds,omitempty"`
	Fault           *ProviderFault `json:"error,omitempty"`
}

// AudioStore persists synthesized audio and returns a reference URL for the
// message record.
type AudioStore interface {
	Save(ctx context.Context, conversationID, messageID string, audio []byte, mimeType string) (string, error)
}
