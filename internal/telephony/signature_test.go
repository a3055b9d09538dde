package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func signedRequest(t *testing.T, authToken, fullURL string, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, fullURL, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set(SignatureHeader, ComputeSignature(authToken, fullURL, form))
	if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return r
}

func TestValidateSignature(t *testing.T) {
	const token = "secret-token"
	const fullURL = "https://example.com/webhooks/twilio/status"
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallStatus", "completed")
	form.Set("From", "+15551234567")

	r := signedRequest(t, token, fullURL, form)
	if !ValidateSignature(token, fullURL, r) {
		t.Fatalf("expected valid signature")
	}
}

func TestValidateSignatureRejectsTamperedParams(t *testing.T) {
	const token = "secret-token"
	const fullURL = "https://example.com/webhooks/twilio/status"
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallStatus", "completed")

	r := signedRequest(t, token, fullURL, form)
	r.PostForm.Set("CallStatus", "failed")
	if ValidateSignature(token, fullURL, r) {
		t.Fatalf("expected tampered request to be rejected")
	}
}

func TestValidateSignatureRejectsWrongToken(t *testing.T) {
	const fullURL = "https://example.com/webhooks/twilio/status"
	form := url.Values{}
	form.Set("CallSid", "CA123")

	r := signedRequest(t, "other-token", fullURL, form)
	if ValidateSignature("secret-token", fullURL, r) {
		t.Fatalf("expected wrong-token request to be rejected")
	}
}

func TestValidateSignatureRejectsMissingHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "https://example.com/x", strings.NewReader(""))
	if ValidateSignature("secret-token", "https://example.com/x", r) {
		t.Fatalf("expected missing header to be rejected")
	}
}

func TestComputeSignatureSortsParams(t *testing.T) {
	const token = "t"
	const fullURL = "https://example.com/hook"

	a := url.Values{}
	a.Set("B", "2")
	a.Set("A", "1")

	b := url.Values{}
	b.Set("A", "1")
	b.Set("B", "2")

	if ComputeSignature(token, fullURL, a) != ComputeSignature(token, fullURL, b) {
		t.Fatalf("expected signature to be insertion-order independent")
	}
}
