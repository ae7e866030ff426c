package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRender(t *testing.T) {
	got := Render("{user} said: {message}", map[string]string{
		"user":    "Alice",
		"message": "I have 5 cats",
	})
	if got != "Alice said: I have 5 cats" {
		t.Fatalf("unexpected render %q", got)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("{user} and {mystery}", map[string]string{"user": "Bob"})
	if got != "Bob and {mystery}" {
		t.Fatalf("unexpected render %q", got)
	}
}

func TestLoadDefaultsWhenNoPath(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.WarningMessage == "" || set.TTSMessage == "" {
		t.Fatal("expected non-empty default templates")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	body := "warning_message: \"Nope.\"\ntts_message: \"{user}: {message}\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}

	set, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.WarningMessage != "Nope." {
		t.Fatalf("expected override, got %q", set.WarningMessage)
	}
	if set.OnBits == "" {
		t.Fatal("expected untouched defaults to survive")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/prompts.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
