package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/koscakluka/ttschat/internal/config"
)

func TestSplitSpeech(t *testing.T) {
	got := splitSpeech("Hello world. How are you?\nI am fine")
	want := []string{"Hello world.", "How are you?", "I am fine"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected parts %q, got %q", want, got)
	}

	if got := splitSpeech("   "); len(got) != 0 {
		t.Fatalf("expected no parts for blank text, got %q", got)
	}
}

func TestLoadPresetAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.preset.json")
	raw := `{"name":"Crew","user_role":"Kirk","assistant_role":"Spock","system_prompt":"Be logical."}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write preset: %v", err)
	}

	preset, err := loadPreset(config.Config{PresetPath: path})
	if err != nil {
		t.Fatalf("expected preset to load, got %v", err)
	}
	if preset.UserRole != "Kirk" || preset.AssistantRole != "Spock" || preset.SystemPrompt != "Be logical." {
		t.Fatalf("expected preset values, got %+v", preset)
	}

	preset, err = loadPreset(config.Config{
		PresetPath:    path,
		SystemPrompt:  "  Be brief.  ",
		UserRole:      "McCoy",
		AssistantRole: "Data",
	})
	if err != nil {
		t.Fatalf("expected preset to load, got %v", err)
	}
	if preset.SystemPrompt != "Be brief." {
		t.Fatalf("expected system override %q, got %q", "Be brief.", preset.SystemPrompt)
	}
	if preset.UserRole != "McCoy" || preset.AssistantRole != "Data" {
		t.Fatalf("expected role overrides, got %q and %q", preset.UserRole, preset.AssistantRole)
	}
}

func TestLoadPresetFallsBackToDefault(t *testing.T) {
	preset, err := loadPreset(config.Config{PresetPath: filepath.Join(t.TempDir(), "missing.json")})
	if err != nil {
		t.Fatalf("expected default preset, got %v", err)
	}
	if preset.UserRole != "user" || preset.AssistantRole != "assistant" {
		t.Fatalf("expected default roles, got %q and %q", preset.UserRole, preset.AssistantRole)
	}
}

func TestLoadPresetRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("failed to write preset: %v", err)
	}
	if _, err := loadPreset(config.Config{PresetPath: path}); err == nil {
		t.Fatalf("expected error for malformed preset")
	}
}
