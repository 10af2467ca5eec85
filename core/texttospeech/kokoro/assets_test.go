package kokoro

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koscakluka/ttschat/core/texttospeech"
)

func writeModelDir(t *testing.T, voices ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{configFile, weightsFile} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, voicesDir), 0o755); err != nil {
		t.Fatalf("failed to create voices dir: %v", err)
	}
	for _, voice := range voices {
		if err := os.WriteFile(filepath.Join(dir, voicesDir, voice+voiceExt), []byte("pt"), 0o644); err != nil {
			t.Fatalf("failed to write voice %s: %v", voice, err)
		}
	}
	return dir
}

func TestLocateAssets(t *testing.T) {
	dir := writeModelDir(t, "af_heart", "am_adam")

	assets, err := LocateAssets(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if assets.Weights != filepath.Join(dir, weightsFile) {
		t.Fatalf("expected weights path, got %q", assets.Weights)
	}
	if path := assets.VoicePath("af_heart"); path != filepath.Join(dir, voicesDir, "af_heart.pt") {
		t.Fatalf("unexpected voice path %q", path)
	}
	if path := assets.VoicePath("af_heart.pt"); path != filepath.Join(dir, voicesDir, "af_heart.pt") {
		t.Fatalf("expected the extension not to be doubled, got %q", path)
	}

	names, err := assets.VoiceNames()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Join(names, ",") != "af_heart,am_adam" {
		t.Fatalf("unexpected voice names %v", names)
	}
}

func TestLocateAssetsReportsMissingFiles(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(dir string)
		missing string
	}{
		{
			name:    "weights",
			prepare: func(dir string) { _ = os.Remove(filepath.Join(dir, weightsFile)) },
			missing: weightsFile,
		},
		{
			name:    "config",
			prepare: func(dir string) { _ = os.Remove(filepath.Join(dir, configFile)) },
			missing: configFile,
		},
		{
			name:    "voices directory",
			prepare: func(dir string) { _ = os.RemoveAll(filepath.Join(dir, voicesDir)) },
			missing: voicesDir,
		},
		{
			name:    "no voices",
			prepare: func(dir string) { _ = os.Remove(filepath.Join(dir, voicesDir, "af_heart.pt")) },
			missing: "*.pt",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := writeModelDir(t, "af_heart")
			test.prepare(dir)

			_, err := LocateAssets(dir)
			var configErr *texttospeech.ConfigurationError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected a ConfigurationError, got %v", err)
			}
			if !strings.HasSuffix(configErr.Path, test.missing) {
				t.Fatalf("expected path ending in %q, got %q", test.missing, configErr.Path)
			}
			if !strings.Contains(configErr.Error(), ModelDirEnv) {
				t.Fatalf("expected the hint to name %s, got %q", ModelDirEnv, configErr.Error())
			}
		})
	}
}

func TestDefaultModelDir(t *testing.T) {
	t.Setenv(ModelDirEnv, "/opt/kokoro")
	if dir := DefaultModelDir(); dir != "/opt/kokoro" {
		t.Fatalf("expected env override, got %q", dir)
	}

	t.Setenv(ModelDirEnv, "")
	if dir := DefaultModelDir(); !strings.HasSuffix(dir, filepath.Join("ttschat", "models", "kokoro-82m")) {
		t.Fatalf("expected cache default, got %q", dir)
	}
}
