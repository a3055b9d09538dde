package turns

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prashantforsure/BeFriend/internal/ai"
	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/users"
	"github.com/prashantforsure/BeFriend/internal/voices"
)

type fakeTranscriber struct {
	text  string
	fault *ai.ProviderFault
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req ai.TranscriptionRequest) ai.TranscriptionResult {
	return ai.TranscriptionResult{Text: f.text, Fault: f.fault}
}

type fakeCompleter struct {
	reply     string
	err       error
	gotPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSynthesizer struct {
	fault    *ai.ProviderFault
	gotVoice string
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, req ai.SynthesisRequest) ai.SynthesisResult {
	f.gotVoice = req.ProviderVoiceID
	if f.fault != nil {
		return ai.SynthesisResult{Fault: f.fault}
	}
	return ai.SynthesisResult{Audio: []byte("mp3"), MIMEType: "audio/mpeg", DurationSeconds: 3}
}

type fakeAudioStore struct {
	saved int
}

func (f *fakeAudioStore) Save(ctx context.Context, conversationID, messageID string, audio []byte, mimeType string) (string, error) {
	f.saved++
	return "https://cdn.example.com/audio/" + conversationID + "/" + messageID + ".mp3", nil
}

type pipelineFixture struct {
	pipeline    *Pipeline
	convs       *conversations.Store
	convRepo    *conversations.MemoryRepo
	transcriber *fakeTranscriber
	completer   *fakeCompleter
	synthesizer *fakeSynthesizer
	audio       *fakeAudioStore
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	userRepo := users.NewMemoryRepo()
	userRepo.Put(users.User{ID: "u1", PhoneNumber: "+15551234567", Tier: users.TierFree, CallCredits: 5})

	personaRepo := personas.NewMemoryRepo()
	personaRepo.Put(personas.Persona{
		ID:             "p1",
		Name:           "Luna",
		PromptTemplate: "You are helpful.",
		IsActive:       true,
		MemoryEnabled:  true,
	})
	personaRepo.Put(personas.Persona{
		ID:       "amnesiac",
		Name:     "Goldfish",
		IsActive: true,
	})

	voiceRepo := voices.NewMemoryRepo()
	voiceRepo.Put(voices.VoiceProfile{ID: "v1", Name: "Calm", Provider: "elevenlabs", ProviderVoiceID: "pv1", IsDefault: true})
	voiceRepo.Put(voices.VoiceProfile{ID: "vip", Name: "Velvet", Provider: "elevenlabs", ProviderVoiceID: "pv2", IsPremium: true})

	convRepo := conversations.NewMemoryRepo()
	convs := conversations.NewStore(convRepo)

	transcriber := &fakeTranscriber{}
	completer := &fakeCompleter{reply: "Hello friend!"}
	synthesizer := &fakeSynthesizer{}
	audio := &fakeAudioStore{}

	p := NewPipeline(
		convs,
		personaRepo,
		userRepo,
		credits.NewGuard(userRepo),
		voices.NewResolver(voiceRepo, userRepo),
		transcriber,
		completer,
		synthesizer,
		audio,
		conversations.DefaultWindow,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	return &pipelineFixture{
		pipeline:    p,
		convs:       convs,
		convRepo:    convRepo,
		transcriber: transcriber,
		completer:   completer,
		synthesizer: synthesizer,
		audio:       audio,
	}
}

func TestTurnTextHappyPath(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	res, err := f.pipeline.Turn(ctx, TurnRequest{
		UserID:     "u1",
		PersonaID:  "p1",
		Text:       "hey there",
		Synthesize: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Response != "Hello friend!" {
		t.Fatalf("unexpected response %q", res.Response)
	}
	if res.AudioURL == "" || res.AudioDurationSeconds != 3 {
		t.Fatalf("expected audio attached, got %q / %d", res.AudioURL, res.AudioDurationSeconds)
	}
	if f.synthesizer.gotVoice != "pv1" {
		t.Fatalf("expected default voice pv1, got %q", f.synthesizer.gotVoice)
	}

	if !strings.HasPrefix(f.completer.gotPrompt, "You are helpful.\n\n") {
		t.Fatalf("expected persona template prefix, got %q", f.completer.gotPrompt)
	}
	if !strings.HasSuffix(f.completer.gotPrompt, "User: hey there\nAssistant:") {
		t.Fatalf("expected input cue suffix, got %q", f.completer.gotPrompt)
	}

	msgs, err := f.convs.RecentWindow(ctx, res.ConversationID, 10)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(msgs))
	}
	if msgs[0].Role != conversations.RoleUser || msgs[1].Role != conversations.RoleAssistant {
		t.Fatalf("unexpected roles %s/%s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].AudioURL == "" {
		t.Fatalf("expected audio url on assistant message")
	}
}

func TestTurnRejectsForeignConversation(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	conv, err := f.convs.Resume(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := f.convs.Append(ctx, conv.ID, conversations.RoleUser, "my favorite color is green"); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err = f.pipeline.Turn(ctx, TurnRequest{
		UserID:         "u9",
		PersonaID:      "p1",
		ConversationID: conv.ID,
		Text:           "hello",
	})
	if !errors.Is(err, conversations.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign conversation, got %v", err)
	}
	if f.completer.gotPrompt != "" {
		t.Fatalf("expected no completion, prompt was %q", f.completer.gotPrompt)
	}

	// The owner's thread must be untouched.
	msgs, err := f.convs.RecentWindow(ctx, conv.ID, 10)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected owner thread unchanged, got %d messages", len(msgs))
	}
}

func TestTurnResponseIsCleaned(t *testing.T) {
	f := newPipelineFixture(t)
	f.completer.reply = "Assistant: I'm good!\nUser: thanks"

	res, err := f.pipeline.Turn(context.Background(), TurnRequest{UserID: "u1", PersonaID: "p1", Text: "how are you?"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Response != "I'm good!" {
		t.Fatalf("expected cleaned reply, got %q", res.Response)
	}
}

func TestTurnAudioInputTranscribed(t *testing.T) {
	f := newPipelineFixture(t)
	f.transcriber.text = "what's up"

	res, err := f.pipeline.Turn(context.Background(), TurnRequest{
		UserID:    "u1",
		PersonaID: "p1",
		Audio:     strings.NewReader("fake-bytes"),
		Filename:  "turn.ogg",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Transcript != "what's up" {
		t.Fatalf("expected transcript, got %q", res.Transcript)
	}
	if !strings.Contains(f.completer.gotPrompt, "User: what's up\nAssistant:") {
		t.Fatalf("expected transcript in prompt, got %q", f.completer.gotPrompt)
	}
}

func TestTurnTranscriptionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.transcriber.fault = &ai.ProviderFault{Provider: "openai", Kind: ai.FaultKindTimeout, Message: "deadline"}

	_, err := f.pipeline.Turn(context.Background(), TurnRequest{
		UserID:    "u1",
		PersonaID: "p1",
		Audio:     strings.NewReader("fake-bytes"),
	})
	var stage *StageError
	if !errors.As(err, &stage) || stage.Stage != StageTranscription {
		t.Fatalf("expected transcription stage error, got %v", err)
	}
}

func TestTurnCompletionFailureKeepsUserMessage(t *testing.T) {
	f := newPipelineFixture(t)
	f.completer.err = errors.New("rate limited")
	ctx := context.Background()

	res, err := f.pipeline.Turn(ctx, TurnRequest{UserID: "u1", PersonaID: "p1", Text: "hello"})
	var stage *StageError
	if !errors.As(err, &stage) || stage.Stage != StageCompletion {
		t.Fatalf("expected completion stage error, got %v", err)
	}

	msgs, err2 := f.convs.RecentWindow(ctx, res.ConversationID, 10)
	if err2 != nil {
		t.Fatalf("window: %v", err2)
	}
	if len(msgs) != 1 || msgs[0].Role != conversations.RoleUser {
		t.Fatalf("expected the user message to survive, got %d messages", len(msgs))
	}
}

func TestTurnSynthesisFailureNonFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.synthesizer.fault = &ai.ProviderFault{Provider: "elevenlabs", Kind: ai.FaultKindAPIError, Message: "quota exceeded"}
	ctx := context.Background()

	res, err := f.pipeline.Turn(ctx, TurnRequest{UserID: "u1", PersonaID: "p1", Text: "hello", Synthesize: true})
	if err != nil {
		t.Fatalf("expected synthesis failure to be non-fatal, got %v", err)
	}
	if res.Response == "" {
		t.Fatalf("expected text reply despite synthesis failure")
	}
	if res.SynthesisFault == nil || res.SynthesisFault.Message != "quota exceeded" {
		t.Fatalf("expected synthesis fault recorded, got %+v", res.SynthesisFault)
	}
	if res.AudioURL != "" {
		t.Fatalf("expected no audio url")
	}

	msgs, _ := f.convs.RecentWindow(ctx, res.ConversationID, 10)
	if len(msgs) != 2 {
		t.Fatalf("expected both messages persisted, got %d", len(msgs))
	}
}

func TestTurnHistoryExcludesCurrentInput(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.Turn(ctx, TurnRequest{UserID: "u1", PersonaID: "p1", Text: "hi"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	_, err = f.pipeline.Turn(ctx, TurnRequest{
		UserID:         "u1",
		PersonaID:      "p1",
		ConversationID: first.ConversationID,
		Text:           "how are you?",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	want := "You are helpful.\n\nUser: hi\nAssistant: Hello friend!\nUser: how are you?\nAssistant:"
	if f.completer.gotPrompt != want {
		t.Fatalf("prompt mismatch:\ngot  %q\nwant %q", f.completer.gotPrompt, want)
	}
}

func TestTurnMemoryDisabledSkipsHistory(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.Turn(ctx, TurnRequest{UserID: "u1", PersonaID: "amnesiac", Text: "remember me"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	_, err = f.pipeline.Turn(ctx, TurnRequest{
		UserID:         "u1",
		PersonaID:      "amnesiac",
		ConversationID: first.ConversationID,
		Text:           "do you remember?",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if strings.Contains(f.completer.gotPrompt, "remember me") {
		t.Fatalf("expected no history in prompt, got %q", f.completer.gotPrompt)
	}
}

func TestTurnEmptyInputRejected(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.pipeline.Turn(context.Background(), TurnRequest{UserID: "u1", PersonaID: "p1", Text: "   "})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSynthesizePremiumVoiceGate(t *testing.T) {
	f := newPipelineFixture(t)
	_, err := f.pipeline.Synthesize(context.Background(), SynthesizeRequest{
		UserID:  "u1",
		Text:    "hello",
		VoiceID: "vip",
	})
	if !errors.Is(err, credits.ErrSubscriptionRequired) {
		t.Fatalf("expected ErrSubscriptionRequired for free user on premium voice, got %v", err)
	}
}
