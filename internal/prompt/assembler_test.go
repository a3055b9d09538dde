package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/prashantforsure/BeFriend/internal/conversations"
)

func history() []conversations.Message {
	base := time.Unix(1700000000, 0).UTC()
	return []conversations.Message{
		{Role: conversations.RoleUser, Content: "hi", CreatedAt: base},
		{Role: conversations.RoleAssistant, Content: "hello", CreatedAt: base.Add(time.Second)},
	}
}

func TestBuild_WithContext(t *testing.T) {
	got := Build("how are you?", "You are helpful.", history(), true)

	want := "You are helpful.\n\nUser: hi\nAssistant: hello\nUser: how are you?\nAssistant:"
	if got != want {
		t.Fatalf("unexpected prompt:\n got: %q\nwant: %q", got, want)
	}
}

func TestBuild_WithoutContext(t *testing.T) {
	got := Build("how are you?", "You are helpful.", history(), false)

	if strings.Contains(got, "You are helpful.") {
		t.Fatalf("expected template omitted, got %q", got)
	}
	if !strings.HasSuffix(got, "User: how are you?\nAssistant:") {
		t.Fatalf("expected trailing user line and assistant cue, got %q", got)
	}
}

func TestBuild_EmptyHistory(t *testing.T) {
	got := Build("hello", "Be brief.", nil, true)
	want := "Be brief.\n\nUser: hello\nAssistant:"
	if got != want {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestCleanResponse_StripsLabelAndHallucinatedTurns(t *testing.T) {
	got := CleanResponse("Assistant: I'm good!\nUser: thanks")
	if got != "I'm good!" {
		t.Fatalf("expected cleaned response, got %q", got)
	}
}

func TestCleanResponse_RepeatedLabels(t *testing.T) {
	got := CleanResponse("Assistant: Assistant: hey there")
	if got != "hey there" {
		t.Fatalf("expected labels stripped, got %q", got)
	}
}

func TestCleanResponse_TruncatesAtAssistantMarker(t *testing.T) {
	got := CleanResponse("Sure thing.\nAssistant: and another turn")
	if got != "Sure thing." {
		t.Fatalf("expected truncation at assistant marker, got %q", got)
	}
}

func TestCleanResponse_PlainTextUntouched(t *testing.T) {
	got := CleanResponse("  Just a normal reply.  ")
	if got != "Just a normal reply." {
		t.Fatalf("expected trimmed reply, got %q", got)
	}
}
