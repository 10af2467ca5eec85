// Package external plays audio by handing a temporary WAV file to the
// platform's command line player.
package external

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/koscakluka/ttschat/core/audio"
)

// pathPlaceholder is replaced with the WAV file path in command arguments.
// Commands without it get the path appended as the last argument.
const pathPlaceholder = "{path}"

var ErrNoPlayerCommand = errors.New("no command line audio player available")

type Player struct {
	command []string
	tempDir string
}

type PlayerOption func(*Player)

// WithCommand overrides the platform command. The first element is the
// executable.
func WithCommand(command ...string) PlayerOption {
	return func(p *Player) {
		p.command = command
	}
}

// WithTempDir sets where the temporary WAV files are written.
func WithTempDir(dir string) PlayerOption {
	return func(p *Player) {
		p.tempDir = dir
	}
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	player := &Player{command: platformCommand(runtime.GOOS)}
	for _, opt := range opts {
		opt(player)
	}

	if len(player.command) == 0 {
		return nil, ErrNoPlayerCommand
	}
	if _, err := exec.LookPath(player.command[0]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPlayerCommand, err)
	}

	return player, nil
}

// Play writes the buffer to a temporary 16-bit WAV file and runs the player
// command on it synchronously. The file is removed whatever the outcome.
func (p *Player) Play(ctx context.Context, buffer audio.Buffer) (err error) {
	if buffer.IsEmpty() {
		return nil
	}

	file, err := os.CreateTemp(p.tempDir, "ttschat-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temporary audio file: %w", err)
	}
	path := file.Name()
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = errors.Join(err, removeErr)
		}
	}()

	if err := audio.WriteWAV(file, buffer); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write temporary audio file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write temporary audio file: %w", err)
	}

	args := commandArgs(p.command[1:], path)
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s failed: %w: %s", p.command[0], err, strings.TrimSpace(string(output)))
	}

	return nil
}

func (p *Player) Close() error {
	return nil
}

func platformCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"afplay", pathPlaceholder}
	case "linux":
		return []string{"aplay", "-q", pathPlaceholder}
	case "windows":
		return []string{
			"powershell", "-NoProfile", "-NonInteractive", "-Command",
			"(New-Object Media.SoundPlayer '" + pathPlaceholder + "').PlaySync()",
		}
	}
	return nil
}

func commandArgs(template []string, path string) []string {
	args := make([]string, 0, len(template)+1)
	substituted := false
	for _, arg := range template {
		if strings.Contains(arg, pathPlaceholder) {
			arg = strings.ReplaceAll(arg, pathPlaceholder, path)
			substituted = true
		}
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, path)
	}
	return args
}
