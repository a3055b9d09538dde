package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseTwilioStatusCallback(t *testing.T) {
	body := strings.NewReader("CallSid=CA123&CallStatus=completed&CallDuration=42&From=%2B15551234567&To=%2B15557654321")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseTwilioStatusCallback(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.CallSid != "CA123" {
		t.Fatalf("expected CallSid, got %q", form.CallSid)
	}
	if form.CallStatus != "completed" {
		t.Fatalf("expected completed status, got %q", form.CallStatus)
	}
	if form.CallDuration != 42 {
		t.Fatalf("expected duration 42, got %d", form.CallDuration)
	}
	if form.From != "+15551234567" || form.To != "+15557654321" {
		t.Fatalf("unexpected from/to: %q %q", form.From, form.To)
	}
}

func TestParseTwilioStatusCallbackFailure(t *testing.T) {
	body := strings.NewReader("CallSid=CA9&CallStatus=failed&ErrorCode=13224&ErrorMessage=Invalid+phone+number")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/status", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseTwilioStatusCallback(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.ErrorCode != "13224" {
		t.Fatalf("expected error code, got %q", form.ErrorCode)
	}
	if form.ErrorMessage != "Invalid phone number" {
		t.Fatalf("expected error message, got %q", form.ErrorMessage)
	}
	if form.CallDuration != 0 {
		t.Fatalf("expected zero duration, got %d", form.CallDuration)
	}
}

func TestParseWhatsAppInbound(t *testing.T) {
	body := strings.NewReader("MessageSid=SM1&From=whatsapp%3A%2B15551234567&To=whatsapp%3A%2B15550000000&Body=hi&ProfileName=Sam")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := ParseWhatsAppInbound(r)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if form.From != "+15551234567" {
		t.Fatalf("expected whatsapp prefix stripped, got %q", form.From)
	}
	if form.Body != "hi" {
		t.Fatalf("expected body, got %q", form.Body)
	}
	if form.ProfileName != "Sam" {
		t.Fatalf("expected profile name, got %q", form.ProfileName)
	}
}
