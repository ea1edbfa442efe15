package logger

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Fatalf("New(%q) returned error: %v", level, err)
		}
	}
	if _, err := New("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
