package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ExtractProviderMessage digs a human-readable message out of a provider
// error body without assuming its shape. Known layouts, tried in order:
//
//	{"error": {"message": "..."}}
//	{"detail": {"message": "..."}}
//	{"detail": "..."}
//	{"message": "..."}
//
// Anything else falls back to the raw body. Malformed payloads never panic.
func ExtractProviderMessage(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ""
	}

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return raw
	}

	if envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if len(envelope.Detail) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Detail, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Detail, &plain); err == nil && plain != "" {
			return plain
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return raw
}

// classifyErr maps a transport-level error to a fault kind.
func classifyErr(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return FaultKindTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return FaultKindTimeout
	}
	return FaultKindTransport
}
