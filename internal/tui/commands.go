package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/presets"
)

const helpText = `Commands:
  /continue             continue the last reply
  /stop                 stop the reply and its audio
  /edit <n> <text>      replace message n
  /delete <n>           delete message n
  /system [text]        set or clear the system prompt
  /preset <path>        load a preset file
  /clear                clear notices
  /quit                 leave
Enter sends, Alt+Enter adds a line, Esc stops, Ctrl+C quits.`

var errQuit = errors.New("quit")

// Session is what the terminal needs from the orchestrator.
type Session interface {
	SendPrompt(text string) error
	ContinueLast() error
	EditMessage(id, text string) error
	DeleteMessage(id string) error
	CancelTurn()
	SetSystemPrompt(prompt string) error
	ApplyPreset(preset presets.Preset) error
	Messages() []llms.Message
	Preset() presets.Preset
	ReadyStatus() string
}

// runCommand executes a slash command and returns the notice to show.
func (m *Model) runCommand(line string) (string, error) {
	name, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(name) {
	case "help", "?":
		return helpText, nil
	case "quit", "exit":
		return "", errQuit
	case "continue":
		return "", m.session.ContinueLast()
	case "stop":
		m.session.CancelTurn()
		return "", nil
	case "clear":
		m.notices = nil
		return "", nil
	case "system":
		if err := m.session.SetSystemPrompt(args); err != nil {
			return "", err
		}
		if args == "" {
			return "System prompt cleared.", nil
		}
		return "System prompt updated.", nil
	case "edit":
		index, text, _ := strings.Cut(args, " ")
		message, err := m.messageAt(index)
		if err != nil {
			return "", err
		}
		return "", m.session.EditMessage(message.ID, text)
	case "delete":
		message, err := m.messageAt(args)
		if err != nil {
			return "", err
		}
		return "", m.session.DeleteMessage(message.ID)
	case "preset":
		preset, err := presets.Load(args)
		if err != nil {
			return "", err
		}
		if err := m.session.ApplyPreset(preset); err != nil {
			return "", err
		}
		return fmt.Sprintf("Preset %q loaded.", preset.Name), nil
	default:
		return "", fmt.Errorf("unknown command /%s, try /help", name)
	}
}

// messageAt resolves the 1-based number shown next to each message.
func (m *Model) messageAt(index string) (llms.Message, error) {
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil {
		return llms.Message{}, fmt.Errorf("expected a message number, got %q", index)
	}

	messages := m.session.Messages()
	if n < 1 || n > len(messages) {
		return llms.Message{}, fmt.Errorf("no message %d", n)
	}
	return messages[n-1], nil
}
