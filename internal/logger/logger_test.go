package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"api_key", "sk-123", "session_id", "abc", "Authorization", "Bearer x"})
	if got[1] != "[REDACTED]" {
		t.Errorf("api_key not redacted: %v", got[1])
	}
	if got[3] != "abc" {
		t.Errorf("session_id altered: %v", got[3])
	}
	if got[5] != "[REDACTED]" {
		t.Errorf("Authorization not redacted: %v", got[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}
	if got[2] != "dangling" {
		t.Errorf("dangling key lost: %v", got[2])
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("k", "v").Debug("hello")
	}
	Nop().Info("discarded")
}
