package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prashantforsure/BeFriend/internal/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

var _ Provider = (*TwilioProvider)(nil)

// TwilioProvider places and controls calls through the Twilio REST API.
// It speaks HTTP directly and intentionally avoids any provider SDK dependency.
type TwilioProvider struct {
	baseURL    string
	accountSID string
	authToken  string
	http       *http.Client
}

func NewTwilioProvider(cfg config.TwilioConfig) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio account sid and auth token are required")
	}
	return &TwilioProvider{
		baseURL:    twilioAPIBase,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		http:       &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	// Fetching the account resource is the lightest authenticated call.
	endpoint := fmt.Sprintf("%s/Accounts/%s.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: twilio health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telephony: twilio health check: http %d", resp.StatusCode)
	}
	return nil
}

// twilioCallResponse is the subset of the Calls resource we read back.
type twilioCallResponse struct {
	Sid     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (p *TwilioProvider) CreateCall(ctx context.Context, req CreateCallRequest) (CreateCallResult, error) {
	if req.To == "" || req.From == "" {
		return CreateCallResult{}, errors.New("telephony: to and from are required")
	}
	if req.VoiceURL == "" {
		return CreateCallResult{}, errors.New("telephony: voice url is required")
	}

	voiceURL, err := urlWithContext(req.VoiceURL, req)
	if err != nil {
		return CreateCallResult{}, err
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", voiceURL)
	if req.StatusCallbackURL != "" {
		form.Set("StatusCallback", req.StatusCallbackURL)
		form.Set("StatusCallbackMethod", http.MethodPost)
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	body, status, err := p.post(ctx, fmt.Sprintf("%s/Accounts/%s/Calls.json", p.baseURL, p.accountSID), form)
	if err != nil {
		return CreateCallResult{}, err
	}

	var call twilioCallResponse
	if jsonErr := json.Unmarshal(body, &call); jsonErr != nil && status < 300 {
		return CreateCallResult{}, fmt.Errorf("telephony: decode twilio response: %w", jsonErr)
	}
	if status >= 300 {
		msg := call.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return CreateCallResult{}, fmt.Errorf("%w: http %d: %s", ErrProviderRejected, status, msg)
	}
	if call.Sid == "" {
		return CreateCallResult{}, errors.New("telephony: twilio response missing call sid")
	}
	return CreateCallResult{ProviderCallID: call.Sid, Status: call.Status}, nil
}

func (p *TwilioProvider) EndCall(ctx context.Context, providerCallID string) error {
	if providerCallID == "" {
		return errors.New("telephony: provider call id is required")
	}

	form := url.Values{}
	form.Set("Status", "completed")

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls/%s.json", p.baseURL, p.accountSID, providerCallID)
	body, status, err := p.post(ctx, endpoint, form)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return ErrCallNotFound
	}
	if status >= 300 {
		var call twilioCallResponse
		_ = json.Unmarshal(body, &call)
		msg := call.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("telephony: end call: http %d: %s", status, msg)
	}
	return nil
}

func (p *TwilioProvider) post(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("telephony: twilio request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("telephony: read twilio response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// urlWithContext appends call context to the voice webhook URL so the
// answering handler knows who is on the line.
func urlWithContext(raw string, req CreateCallRequest) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("telephony: parse voice url: %w", err)
	}
	q := u.Query()
	if req.UserID != "" {
		q.Set("userId", req.UserID)
	}
	if req.PersonaID != "" {
		q.Set("personaId", req.PersonaID)
	}
	if req.ConversationID != "" {
		q.Set("conversationId", req.ConversationID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
