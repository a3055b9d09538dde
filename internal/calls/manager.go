package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/telephony"
	"github.com/prashantforsure/BeFriend/internal/users"

	"github.com/google/uuid"
)

var (
	// ErrTooManyCalls is returned when the user is at the concurrent-call cap.
	ErrTooManyCalls = errors.New("calls: concurrent call limit reached")
	// ErrPersonaInactive is returned when the resolved persona is disabled.
	ErrPersonaInactive = errors.New("calls: persona is inactive")
)

// ManagerConfig carries the call-placement settings the manager needs.
type ManagerConfig struct {
	// FromNumber is the caller id for outbound calls (E.164).
	FromNumber string

	// VoiceURL and StatusCallbackURL are the public webhook endpoints
	// handed to the provider on call creation.
	VoiceURL          string
	StatusCallbackURL string

	// TriggerPhrase is compared against trimmed, lower-cased message bodies.
	TriggerPhrase string
}

// Manager drives the call lifecycle: placement, provider status callbacks,
// and user-requested hangups. Provider callbacks are the source of truth for
// state; the manager never invents a terminal state on its own.
type Manager struct {
	cfg      ManagerConfig
	users    users.Repository
	personas personas.Repository
	convs    *conversations.Store
	credits  *credits.Guard
	repo     Repository
	provider telephony.Provider
	limiter  Limiter
	log      *slog.Logger

	clock func() time.Time
	newID func() string
}

func NewManager(
	cfg ManagerConfig,
	userRepo users.Repository,
	personaRepo personas.Repository,
	convs *conversations.Store,
	guard *credits.Guard,
	repo Repository,
	provider telephony.Provider,
	limiter Limiter,
	log *slog.Logger,
) *Manager {
	return &Manager{
		cfg:      cfg,
		users:    userRepo,
		personas: personaRepo,
		convs:    convs,
		credits:  guard,
		repo:     repo,
		provider: provider,
		limiter:  limiter,
		log:      log,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

// InitiateCallRequest identifies the callee by user id or phone number and
// optionally pins a persona. Empty PersonaID falls back to the user's default
// persona preference, then the store default.
type InitiateCallRequest struct {
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	PersonaID   string `json:"persona_id"`

	// ConversationID optionally continues an existing thread instead of
	// resuming or starting one.
	ConversationID string `json:"conversation_id"`
}

// InitiateCall places an outbound persona call.
//
// Ordering invariant: the credit is consumed only after the provider accepts
// the call, and no CallLog row is written on provider failure. The consume is
// the authority on the balance: an initiation that loses the race for the
// last credit is aborted even though the provider accepted it. There is no
// refund path; a call that later fails still cost its credit.
func (m *Manager) InitiateCall(ctx context.Context, req InitiateCallRequest) (CallLog, error) {
	user, err := m.resolveUser(ctx, req)
	if err != nil {
		return CallLog{}, err
	}

	persona, err := m.resolvePersona(ctx, user, req.PersonaID)
	if err != nil {
		return CallLog{}, err
	}

	allowed, err := m.credits.CheckPremiumAccess(ctx, user.ID, persona.IsPremium)
	if err != nil {
		return CallLog{}, err
	}
	if !allowed {
		return CallLog{}, credits.ErrSubscriptionRequired
	}

	has, err := m.credits.CheckCredits(ctx, user.ID)
	if err != nil {
		return CallLog{}, err
	}
	if !has {
		return CallLog{}, credits.ErrInsufficientCredits
	}

	acquired, err := m.limiter.Acquire(ctx, user.ID)
	if err != nil {
		return CallLog{}, fmt.Errorf("calls: acquire slot: %w", err)
	}
	if !acquired {
		return CallLog{}, ErrTooManyCalls
	}

	conv, err := m.resolveConversation(ctx, user.ID, persona.ID, req.ConversationID)
	if err != nil {
		m.releaseSlot(ctx, user.ID)
		return CallLog{}, err
	}

	created, err := m.provider.CreateCall(ctx, telephony.CreateCallRequest{
		To:                user.PhoneNumber,
		From:              m.cfg.FromNumber,
		UserID:            user.ID,
		PersonaID:         persona.ID,
		ConversationID:    conv.ID,
		VoiceURL:          m.cfg.VoiceURL,
		StatusCallbackURL: m.cfg.StatusCallbackURL,
	})
	if err != nil {
		m.releaseSlot(ctx, user.ID)
		return CallLog{}, fmt.Errorf("calls: provider create: %w", err)
	}

	now := m.clock()
	call := CallLog{
		ID:             m.newID(),
		UserID:         user.ID,
		PersonaID:      persona.ID,
		ConversationID: conv.ID,
		ProviderCallID: created.ProviderCallID,
		Direction:      DirectionOutbound,
		From:           m.cfg.FromNumber,
		To:             user.PhoneNumber,
		Status:         CallStatusInitiated,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.repo.Create(ctx, call); err != nil {
		// No row to track the accepted call, so hang it up instead of
		// leaving it running untracked.
		m.hangup(ctx, created.ProviderCallID)
		m.releaseSlot(ctx, user.ID)
		return CallLog{}, fmt.Errorf("calls: persist call log: %w", err)
	}

	if err := m.credits.ConsumeCredit(ctx, user.ID); err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			// A concurrent initiation won the race for the last credit.
			// The advisory CheckCredits above let both through; the
			// decrement is the authority, so this call is canceled.
			m.abortUnfunded(ctx, call)
			return CallLog{}, credits.ErrInsufficientCredits
		}
		// Transient store failure with the balance not in doubt; keep the
		// accepted call rather than orphan it.
		m.log.Warn("credit consume failed after provider accept",
			"user_id", user.ID, "call_id", call.ID, "error", err)
	}

	m.log.Info("call initiated",
		"call_id", call.ID,
		"user_id", user.ID,
		"persona_id", persona.ID,
		"conversation_id", conv.ID,
		"provider_call_id", created.ProviderCallID)
	return call, nil
}

// HandleTrigger inspects an inbound message body and places a call when it
// matches the trigger phrase. Exact match only: trimmed, lower-cased body
// must equal the phrase. Returns false when the body is not a trigger.
func (m *Manager) HandleTrigger(ctx context.Context, fromPhone, body, personaID string) (CallLog, bool, error) {
	if strings.ToLower(strings.TrimSpace(body)) != m.cfg.TriggerPhrase {
		return CallLog{}, false, nil
	}
	call, err := m.InitiateCall(ctx, InitiateCallRequest{
		PhoneNumber: fromPhone,
		PersonaID:   personaID,
	})
	if err != nil {
		return CallLog{}, true, err
	}
	return call, true, nil
}

// OnStatusCallback applies a provider lifecycle event. Unknown call ids and
// unknown statuses are logged and swallowed so the provider always gets its
// ack; illegal transitions are rejected without mutating the record.
func (m *Manager) OnStatusCallback(ctx context.Context, form telephony.TwilioStatusForm) error {
	next, ok := MapProviderStatus(form.CallStatus)
	if !ok {
		m.log.Warn("unknown provider call status",
			"provider_call_id", form.CallSid, "status", form.CallStatus)
		return nil
	}

	call, err := m.repo.GetByProviderCallID(ctx, form.CallSid)
	if errors.Is(err, ErrNotFound) {
		m.log.Warn("status callback for unknown call", "provider_call_id", form.CallSid)
		return nil
	}
	if err != nil {
		return fmt.Errorf("calls: lookup by provider id: %w", err)
	}

	if call.Status == next {
		return nil
	}
	if !CanTransition(call.Status, next) {
		m.log.Warn("rejected call status transition",
			"call_id", call.ID, "from", call.Status, "to", next)
		return nil
	}

	now := m.clock()
	if !next.IsTerminal() {
		if err := m.repo.UpdateStatus(ctx, call.ID, next, now); err != nil {
			return fmt.Errorf("calls: update status: %w", err)
		}
		m.log.Info("call status updated", "call_id", call.ID, "status", next)
		return nil
	}

	applied, err := m.repo.Finalize(ctx, call.ID, next, now, form.CallDuration, form.ErrorMessage)
	if err != nil {
		return fmt.Errorf("calls: finalize: %w", err)
	}
	if !applied {
		// A terminal event already landed; replays change nothing.
		return nil
	}

	m.releaseSlot(ctx, call.UserID)

	if next == CallStatusCompleted {
		if _, err := m.convs.End(ctx, call.ConversationID); err != nil {
			m.log.Error("end conversation after completed call",
				"conversation_id", call.ConversationID, "error", err)
		}
	}

	m.log.Info("call ended",
		"call_id", call.ID,
		"status", next,
		"duration_seconds", form.CallDuration)
	return nil
}

// EndCall asks the provider to hang up the user's call. The record is not
// finalized here; the provider's terminal callback remains the source of
// truth for the final state and duration.
func (m *Manager) EndCall(ctx context.Context, callID, userID string) error {
	call, err := m.repo.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if call.UserID != userID {
		return ErrNotFound
	}
	if call.Status.IsTerminal() {
		return nil
	}
	if err := m.provider.EndCall(ctx, call.ProviderCallID); err != nil {
		return fmt.Errorf("calls: provider hangup: %w", err)
	}
	m.log.Info("call hangup requested", "call_id", call.ID, "user_id", userID)
	return nil
}

// Get returns the call log scoped to its owner.
func (m *Manager) Get(ctx context.Context, callID, userID string) (CallLog, error) {
	call, err := m.repo.GetByID(ctx, callID)
	if err != nil {
		return CallLog{}, err
	}
	if call.UserID != userID {
		return CallLog{}, ErrNotFound
	}
	return call, nil
}

func (m *Manager) resolveUser(ctx context.Context, req InitiateCallRequest) (users.User, error) {
	if req.UserID != "" {
		return m.users.GetByID(ctx, req.UserID)
	}
	if req.PhoneNumber != "" {
		return m.users.GetByPhone(ctx, req.PhoneNumber)
	}
	return users.User{}, users.ErrNotFound
}

func (m *Manager) resolvePersona(ctx context.Context, user users.User, personaID string) (personas.Persona, error) {
	if personaID == "" {
		prefs, err := m.users.Preferences(ctx, user.ID)
		if err != nil {
			return personas.Persona{}, err
		}
		personaID = prefs.DefaultPersonaID
	}
	if personaID == "" {
		return m.personas.Default(ctx)
	}
	p, err := m.personas.GetByID(ctx, personaID)
	if err != nil {
		return personas.Persona{}, err
	}
	if !p.IsActive {
		return personas.Persona{}, ErrPersonaInactive
	}
	return p, nil
}

func (m *Manager) resolveConversation(ctx context.Context, userID, personaID, conversationID string) (conversations.Conversation, error) {
	if conversationID == "" {
		conv, err := m.convs.Resume(ctx, userID, personaID)
		if err != nil {
			return conversations.Conversation{}, fmt.Errorf("calls: resume conversation: %w", err)
		}
		return conv, nil
	}
	conv, err := m.convs.Get(ctx, conversationID)
	if err != nil {
		return conversations.Conversation{}, err
	}
	if conv.UserID != userID {
		return conversations.Conversation{}, conversations.ErrNotFound
	}
	return conv, nil
}

// abortUnfunded cancels a provider-accepted call whose credit decrement found
// an empty balance: hang up, finalize the log as canceled, free the slot. The
// provider's own terminal callback then replays against a finalized row and
// changes nothing.
func (m *Manager) abortUnfunded(ctx context.Context, call CallLog) {
	m.hangup(ctx, call.ProviderCallID)
	if _, err := m.repo.Finalize(ctx, call.ID, CallStatusCanceled, m.clock(), 0, "no call credits remaining"); err != nil {
		m.log.Error("finalize unfunded call", "call_id", call.ID, "error", err)
	}
	m.releaseSlot(ctx, call.UserID)
}

func (m *Manager) hangup(ctx context.Context, providerCallID string) {
	if err := m.provider.EndCall(ctx, providerCallID); err != nil {
		m.log.Error("provider hangup after aborted initiation",
			"provider_call_id", providerCallID, "error", err)
	}
}

func (m *Manager) releaseSlot(ctx context.Context, userID string) {
	if err := m.limiter.Release(ctx, userID); err != nil {
		m.log.Error("release call slot", "user_id", userID, "error", err)
	}
}
