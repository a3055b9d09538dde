// Package prompt builds completion prompts from a persona template and a
// bounded slice of conversation history, and cleans raw completion output.
//
// Bounding is the caller's job: the history slice is already windowed by the
// conversation store, so assembly itself enforces no maximum length.
package prompt

import (
	"strings"

	"github.com/prashantforsure/BeFriend/internal/conversations"
)

const (
	userLabel      = "User:"
	assistantLabel = "Assistant:"
)

// stopMarkers truncate a completion at the point where the model starts
// hallucinating subsequent turns.
var stopMarkers = []string{
	"\n" + userLabel,
	"\n" + assistantLabel,
	"\nUser ",
}

// Build renders the prompt for one turn.
//
// Layout: optional persona template, then history as alternating
// "User:"/"Assistant:" lines in chronological order, then the new user line
// and a trailing assistant cue for the completion provider to continue.
// includeContext is driven by the persona's memory flag at the call site.
func Build(userInput, personaTemplate string, history []conversations.Message, includeContext bool) string {
	var b strings.Builder

	if includeContext && strings.TrimSpace(personaTemplate) != "" {
		b.WriteString(strings.TrimSpace(personaTemplate))
		b.WriteString("\n\n")
	}

	for _, m := range history {
		label := userLabel
		if m.Role == conversations.RoleAssistant {
			label = assistantLabel
		}
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString(userLabel)
	b.WriteString(" ")
	b.WriteString(userInput)
	b.WriteString("\n")
	b.WriteString(assistantLabel)

	return b.String()
}

// CleanResponse normalizes raw completion text: leading speaker labels are
// stripped, whitespace trimmed, and anything after the first stop marker is
// dropped.
func CleanResponse(raw string) string {
	out := strings.TrimSpace(raw)

	for strings.HasPrefix(out, assistantLabel) {
		out = strings.TrimSpace(strings.TrimPrefix(out, assistantLabel))
	}

	cut := len(out)
	for _, marker := range stopMarkers {
		if i := strings.Index(out, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	out = out[:cut]

	return strings.TrimSpace(out)
}
