package texttospeech

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{
		Path:  "/models/kokoro/config.json",
		Hint:  "download it from the model repository",
		Cause: fs.ErrNotExist,
	}

	msg := err.Error()
	if !strings.Contains(msg, "/models/kokoro/config.json") || !strings.Contains(msg, "download it") {
		t.Fatalf("expected path and hint in message, got %q", msg)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected cause to be unwrapped")
	}
}

func TestSynthesisErrorIs(t *testing.T) {
	cause := errors.New("worker crashed")
	err := &SynthesisError{Engine: "kokoro", Message: "request failed", Cause: cause}

	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed to match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to match")
	}
	if err.Error() != "kokoro: request failed: worker crashed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
