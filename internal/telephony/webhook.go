package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// TwilioStatusForm captures the subset of status callback fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
// Business logic (lifecycle transitions) is not made here.
type TwilioStatusForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	CallStatus   string
	CallDuration int
	ErrorCode    string
	ErrorMessage string
	Timestamp    string
}

func ParseTwilioStatusCallback(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	f := TwilioStatusForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         normalizePhone(r.PostFormValue("From")),
		To:           normalizePhone(r.PostFormValue("To")),
		CallStatus:   r.PostFormValue("CallStatus"),
		ErrorCode:    r.PostFormValue("ErrorCode"),
		ErrorMessage: r.PostFormValue("ErrorMessage"),
		Timestamp:    r.PostFormValue("Timestamp"),
	}
	if d := r.PostFormValue("CallDuration"); d != "" {
		if secs, err := strconv.Atoi(d); err == nil {
			f.CallDuration = secs
		}
	}
	return f, nil
}

// WhatsAppInboundForm is the WhatsApp message webhook payload subset.
// From arrives as "whatsapp:+15551234567"; the prefix is stripped.
type WhatsAppInboundForm struct {
	MessageSid  string
	From        string
	To          string
	Body        string
	ProfileName string
}

func ParseWhatsAppInbound(r *http.Request) (WhatsAppInboundForm, error) {
	if err := r.ParseForm(); err != nil {
		return WhatsAppInboundForm{}, err
	}
	return WhatsAppInboundForm{
		MessageSid:  r.PostFormValue("MessageSid"),
		From:        normalizePhone(stripWhatsAppPrefix(r.PostFormValue("From"))),
		To:          normalizePhone(stripWhatsAppPrefix(r.PostFormValue("To"))),
		Body:        r.PostFormValue("Body"),
		ProfileName: r.PostFormValue("ProfileName"),
	}, nil
}

func stripWhatsAppPrefix(s string) string {
	return strings.TrimPrefix(s, "whatsapp:")
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}
