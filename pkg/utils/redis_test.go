package utils

import "testing"

func TestCallCapScriptsCompile(t *testing.T) {
	if callCapAcquireScript == nil || callCapReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}
