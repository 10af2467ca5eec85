package external

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/koscakluka/ttschat/core/audio"
)

func TestPlatformCommand(t *testing.T) {
	if got := platformCommand("linux"); !slices.Equal(got, []string{"aplay", "-q", pathPlaceholder}) {
		t.Fatalf("expected aplay on linux, got %v", got)
	}
	if got := platformCommand("darwin"); got[0] != "afplay" {
		t.Fatalf("expected afplay on darwin, got %v", got)
	}
	if got := platformCommand("windows"); got[0] != "powershell" {
		t.Fatalf("expected powershell on windows, got %v", got)
	}
	if got := platformCommand("plan9"); got != nil {
		t.Fatalf("expected no command, got %v", got)
	}
}

func TestCommandArgs(t *testing.T) {
	if got := commandArgs([]string{"-q", pathPlaceholder}, "/tmp/a.wav"); !slices.Equal(got, []string{"-q", "/tmp/a.wav"}) {
		t.Fatalf("expected placeholder substitution, got %v", got)
	}
	if got := commandArgs([]string{"-q"}, "/tmp/a.wav"); !slices.Equal(got, []string{"-q", "/tmp/a.wav"}) {
		t.Fatalf("expected appended path, got %v", got)
	}
}

func TestPlayRemovesTemporaryFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	tempDir := t.TempDir()
	copyPath := filepath.Join(t.TempDir(), "copy.wav")

	player, err := NewPlayer(
		WithCommand("sh", "-c", `cp "$0" "$1"`, pathPlaceholder, copyPath),
		WithTempDir(tempDir),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := player.Play(context.Background(), audio.NewBuffer([]float32{0, 0.25, -0.25})); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	copied, err := os.ReadFile(copyPath)
	if err != nil {
		t.Fatalf("expected the command to receive the WAV file, got %v", err)
	}
	if string(copied[:4]) != "RIFF" || len(copied) != 44+6 {
		t.Fatalf("expected a 50 byte WAV file, got %d bytes", len(copied))
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temporary file to be removed, found %d entries", len(entries))
	}
}

func TestPlayRemovesTemporaryFileOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	tempDir := t.TempDir()
	player, err := NewPlayer(WithCommand("sh", "-c", "exit 3"), WithTempDir(tempDir))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := player.Play(context.Background(), audio.NewBuffer([]float32{0.1})); err == nil {
		t.Fatalf("expected an error from a failing command")
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Fatalf("expected temporary file to be removed, found %d entries", len(entries))
	}
}

func TestNewPlayerRejectsMissingCommand(t *testing.T) {
	if _, err := NewPlayer(WithCommand("ttschat-no-such-player")); err == nil {
		t.Fatalf("expected an error for a missing command")
	}
}
