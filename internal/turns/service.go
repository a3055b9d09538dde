package turns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prashantforsure/BeFriend/internal/ai"
	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/prompt"
	"github.com/prashantforsure/BeFriend/internal/users"
	"github.com/prashantforsure/BeFriend/internal/voices"
)

// Pipeline stage names, used to tag which step of a turn failed.
const (
	StageTranscription = "transcription"
	StageCompletion    = "completion"
	StageSynthesis     = "synthesis"
	StagePersistence   = "persistence"
)

// StageError reports which pipeline stage failed. Side effects from stages
// that already completed stay persisted; there are no internal retries.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("turns: %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

/// Pipeline executes one conversational turn: speech in, persona reply out.
type Pipeline struct {
	convs       *conversations.Store
	personas    personas.Repository
	users       users.Repository
	credits     *credits.Guard
	voices      *voices.Resolver
	transcriber ai.Transcriber
	completer   ai.Completer
	synthesizer ai.Synthesizer
	audio       ai.AudioStore
	log         *slog.Logger

	historyWindow int
}

func NewPipeline(
	convs *conversations.Store,
	personaRepo personas.Repository,
	userRepo users.Repository,
	guard *credits.Guard,
	resolver *voices.Resolver,
	transcriber ai.Transcriber,
	completer ai.Completer,
	synthesizer ai.Synthesizer,
	audio ai.AudioStore,
	historyWindow int,
	log *slog.Logger,
) *Pipeline {
	if historyWindow <= 0 {
		historyWindow = conversations.DefaultWindow
	}
	return &Pipeline{
		convs:         convs,
		personas:      personaRepo,
		users:         userRepo,
		credits:       guard,
		voices:        resolver,
		transcriber:   transcriber,
		completer:     completer,
		synthesizer:   synthesizer,
		audio:         audio,
		log:           log,
		historyWindow: historyWindow,
	}
}

// TurnRequest describes one turn. Exactly one of Text or Audio carries the
// user's input; Audio is transcribed first.
type TurnRequest struct {
	UserID         string
	PersonaID      string
	ConversationID string

	Text     string
	Audio    io.Reader
	Filename string

	// Synthesize asks for a spoken reply. VoiceID optionally pins a voice;
	// empty falls through persona, user preference, then store default.
	Synthesize bool
	VoiceID    string
}

// TurnResult carries everything the turn produced. SynthesisFault is
// non-fatal: a reply whose audio failed still has its text persisted.
type TurnResult struct {
	ConversationID string `json:"conversation_id"`

	Transcript string `json:"transcript,omitempty"`
	Response   string `json:"response"`

	UserMessageID      string `json:"user_message_id"`
	AssistantMessageID string `json:"assistant_message_id"`

	AudioURL             string            `json:"audio_url,omitempty"`
	AudioDurationSeconds int               `json:"audio_duration_seconds,omitempty"`
	SynthesisFault       *ai.ProviderFault `json:"synthesis_error,omitempty"`
}

var (
	// ErrEmptyInput is returned when a turn carries neither text nor audio.
	ErrEmptyInput = errors.New("turns: empty input")
	// ErrEmptyTranscript is returned when transcription yields nothing usable.
	ErrEmptyTranscript = errors.New("turns: transcription produced no text")
)

// Turn runs the full pipeline. Completed stages are never rolled back: a
// completion failure leaves the user message in history, and a synthesis
// failure leaves the assistant reply without audio.
func (p *Pipeline) Turn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	var res TurnResult

	text := strings.TrimSpace(req.Text)
	if req.Audio != nil {
		tr := p.transcriber.Transcribe(ctx, ai.TranscriptionRequest{Audio: req.Audio, Filename: req.Filename})
		if tr.Fault != nil {
			return res, &StageError{Stage: StageTranscription, Err: tr.Fault}
		}
		text = strings.TrimSpace(tr.Text)
		if text == "" {
			return res, &StageError{Stage: StageTranscription, Err: ErrEmptyTranscript}
		}
		res.Transcript = text
	}
	if text == "" {
		return res, ErrEmptyInput
	}

	persona, err := p.resolvePersona(ctx, req.UserID, req.PersonaID)
	if err != nil {
		return res, err
	}

	conv, err := p.resolveConversation(ctx, req, persona.ID)
	if err != nil {
		return res, &StageError{Stage: StagePersistence, Err: err}
	}
	res.ConversationID = conv.ID

	userMsg, err := p.convs.Append(ctx, conv.ID, conversations.RoleUser, text)
	if err != nil {
		return res, &StageError{Stage: StagePersistence, Err: err}
	}
	res.UserMessageID = userMsg.ID

	var history []conversations.Message
	if persona.MemoryEnabled {
		window, err := p.convs.RecentWindow(ctx, conv.ID, p.historyWindow)
		if err != nil {
			return res, &StageError{Stage: StagePersistence, Err: err}
		}
		// The current input is already persisted; the prompt assembler
		// appends it separately.
		for _, m := range window {
			if m.ID == userMsg.ID {
				continue
			}
			history = append(history, m)
		}
	}

	built := prompt.Build(text, persona.PromptTemplate, history, persona.MemoryEnabled)
	raw, err := p.completer.Complete(ctx, built)
	if err != nil {
		return res, &StageError{Stage: StageCompletion, Err: err}
	}
	reply := prompt.CleanResponse(raw)
	if reply == "" {
		return res, &StageError{Stage: StageCompletion, Err: errors.New("empty completion")}
	}
	res.Response = reply

	assistantMsg, err := p.convs.Append(ctx, conv.ID, conversations.RoleAssistant, reply)
	if err != nil {
		return res, &StageError{Stage: StagePersistence, Err: err}
	}
	res.AssistantMessageID = assistantMsg.ID

	if req.Synthesize {
		p.synthesizeReply(ctx, req, persona, conv.ID, assistantMsg.ID, reply, &res)
	}
	return res, nil
}

// Transcribe runs the transcription stage alone.
func (p *Pipeline) Transcribe(ctx context.Context, audio io.Reader, filename string) ai.TranscriptionResult {
	return p.transcriber.Transcribe(ctx, ai.TranscriptionRequest{Audio: audio, Filename: filename})
}

// SynthesizeRequest is a standalone text-to-speech request outside a turn.
type SynthesizeRequest struct {
	UserID  string
	Text    string
	VoiceID string
}

// Synthesize runs the synthesis stage alone: resolve a voice for the user,
// enforce the premium gate, and return the raw result. No persistence.
func (p *Pipeline) Synthesize(ctx context.Context, req SynthesizeRequest) (ai.SynthesisResult, error) {
	voice, err := p.voices.Resolve(ctx, req.VoiceID, personas.Persona{}, req.UserID)
	if err != nil {
		return ai.SynthesisResult{}, err
	}
	allowed, err := p.credits.CheckPremiumAccess(ctx, req.UserID, voice.IsPremium)
	if err != nil {
		return ai.SynthesisResult{}, err
	}
	if !allowed {
		return ai.SynthesisResult{}, credits.ErrSubscriptionRequired
	}
	return p.synthesizer.Synthesize(ctx, ai.SynthesisRequest{
		Text:            req.Text,
		ProviderVoiceID: voice.ProviderVoiceID,
	}), nil
}

// synthesizeReply renders the assistant reply to audio and attaches it to
// the message. Failures land in res.SynthesisFault instead of failing the
// turn; the text reply already exists.
func (p *Pipeline) synthesizeReply(ctx context.Context, req TurnRequest, persona personas.Persona, conversationID, messageID, reply string, res *TurnResult) {
	voice, err := p.voices.Resolve(ctx, req.VoiceID, persona, req.UserID)
	if err != nil {
		res.SynthesisFault = synthFault(err)
		return
	}
	allowed, err := p.credits.CheckPremiumAccess(ctx, req.UserID, voice.IsPremium)
	if err != nil {
		res.SynthesisFault = synthFault(err)
		return
	}
	if !allowed {
		res.SynthesisFault = synthFault(credits.ErrSubscriptionRequired)
		return
	}

	sr := p.synthesizer.Synthesize(ctx, ai.SynthesisRequest{
		Text:            reply,
		ProviderVoiceID: voice.ProviderVoiceID,
	})
	if sr.Fault != nil {
		res.SynthesisFault = sr.Fault
		p.log.Warn("reply synthesis failed",
			"conversation_id", conversationID, "provider", sr.Fault.Provider, "error", sr.Fault.Message)
		return
	}

	url, err := p.audio.Save(ctx, conversationID, messageID, sr.Audio, sr.MIMEType)
	if err != nil {
		res.SynthesisFault = synthFault(err)
		p.log.Warn("audio save failed", "conversation_id", conversationID, "error", err)
		return
	}
	if err := p.convs.AttachAudio(ctx, messageID, url, sr.DurationSeconds); err != nil {
		res.SynthesisFault = synthFault(err)
		return
	}
	res.AudioURL = url
	res.AudioDurationSeconds = sr.DurationSeconds
}

func (p *Pipeline) resolvePersona(ctx context.Context, userID, personaID string) (personas.Persona, error) {
	if personaID == "" {
		prefs, err := p.users.Preferences(ctx, userID)
		if err != nil {
			return personas.Persona{}, err
		}
		personaID = prefs.DefaultPersonaID
	}
	if personaID == "" {
		return p.personas.Default(ctx)
	}
	return p.personas.GetByID(ctx, personaID)
}

func (p *Pipeline) resolveConversation(ctx context.Context, req TurnRequest, personaID string) (conversations.Conversation, error) {
	if req.ConversationID != "" {
		conv, err := p.convs.Get(ctx, req.ConversationID)
		if err != nil {
			return conversations.Conversation{}, err
		}
		// Foreign threads are indistinguishable from missing ones.
		if conv.UserID != req.UserID {
			return conversations.Conversation{}, conversations.ErrNotFound
		}
		return conv, nil
	}
	return p.convs.Resume(ctx, req.UserID, personaID)
}

func synthFault(err error) *ai.ProviderFault {
	var pf *ai.ProviderFault
	if errors.As(err, &pf) {
		return pf
	}
	return &ai.ProviderFault{Provider: "synthesis", Kind: ai.FaultKindAPIError, Message: err.Error()}
}
