package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testProvider(srvURL string) *TwilioProvider {
	return &TwilioProvider{
		baseURL:    srvURL,
		accountSID: "AC000",
		authToken:  "token",
		http:       &http.Client{Timeout: 5 * time.Second},
	}
}

func TestCreateCallSuccess(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC000/Calls.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC000" || pass != "token" {
			t.Errorf("missing or wrong basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"To":             r.PostFormValue("To"),
			"From":           r.PostFormValue("From"),
			"Url":            r.PostFormValue("Url"),
			"StatusCallback": r.PostFormValue("StatusCallback"),
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA555","status":"queued"}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	res, err := p.CreateCall(context.Background(), CreateCallRequest{
		To:                "+15551234567",
		From:              "+15550000000",
		UserID:            "u1",
		PersonaID:         "p1",
		ConversationID:    "c1",
		VoiceURL:          "https://example.com/webhooks/twilio/voice",
		StatusCallbackURL: "https://example.com/webhooks/twilio/status",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ProviderCallID != "CA555" {
		t.Fatalf("expected sid CA555, got %q", res.ProviderCallID)
	}
	if res.Status != "queued" {
		t.Fatalf("expected queued, got %q", res.Status)
	}
	if gotForm["To"] != "+15551234567" || gotForm["From"] != "+15550000000" {
		t.Fatalf("unexpected to/from: %v", gotForm)
	}
	if gotForm["StatusCallback"] != "https://example.com/webhooks/twilio/status" {
		t.Fatalf("expected status callback, got %q", gotForm["StatusCallback"])
	}
	for _, param := range []string{"userId=u1", "personaId=p1", "conversationId=c1"} {
		if !contains(gotForm["Url"], param) {
			t.Fatalf("expected %q in voice url %q", param, gotForm["Url"])
		}
	}
}

func TestCreateCallRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number"}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	_, err := p.CreateCall(context.Background(), CreateCallRequest{
		To:       "bad",
		From:     "+15550000000",
		VoiceURL: "https://example.com/voice",
	})
	if !errors.Is(err, ErrProviderRejected) {
		t.Fatalf("expected ErrProviderRejected, got %v", err)
	}
	if !contains(err.Error(), "Invalid 'To' phone number") {
		t.Fatalf("expected provider message in error: %v", err)
	}
}

func TestEndCallNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":20404,"message":"not found"}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if err := p.EndCall(context.Background(), "CA999"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestEndCallCompletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("Status"); got != "completed" {
			t.Errorf("expected Status=completed, got %q", got)
		}
		w.Write([]byte(`{"sid":"CA555","status":"completed"}`))
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	if err := p.EndCall(context.Background(), "CA555"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return len(sub) == 0
}
