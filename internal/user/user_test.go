package user

import "testing"

func TestName_EnvOverride(t *testing.T) {
	t.Setenv("KANSYNC_USER", "  alice ")

	if got := Name(); got != "alice" {
		t.Errorf("Expected 'alice', got %q", got)
	}
}

func TestName_NeverEmpty(t *testing.T) {
	t.Setenv("KANSYNC_USER", "")

	if got := Name(); got == "" {
		t.Error("Expected a non-empty name")
	}
}
