// Package tui is the terminal front end of a chat session: a scrolling
// transcript, an input box and a status line.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ttschat/core/llms"
	"github.com/muesli/reflow/wordwrap"
)

const (
	inputHeight  = 3
	chromeHeight = inputHeight + 3
	minWidth     = 20
)

// notice is a system line shown after the first after messages.
type notice struct {
	after int
	text  string
}

type Model struct {
	session Session

	transcript viewport.Model
	input      textarea.Model
	spinner    spinner.Model

	width  int
	height int
	ready  bool

	live       strings.Builder
	liveActive bool
	// liveID is the continued message while it is being extended.
	liveID string

	notices      []notice
	status       string
	inputEnabled bool
}

// NewModel returns a model without a session. Attach one before the program
// runs.
func NewModel() *Model {
	input := textarea.New()
	input.Placeholder = "Type a message, /help for commands"
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetKeys("alt+enter")
	input.Focus()

	return &Model{
		input:        input,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		inputEnabled: true,
	}
}

func (m *Model) Attach(session Session) {
	m.session = session
	m.status = session.ReadyStatus()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.CancelTurn()
			return m, tea.Quit
		case "esc":
			m.session.CancelTurn()
			return m, nil
		case "enter":
			if cmd := m.submit(); cmd != nil {
				return m, cmd
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}

	case turnStartedMsg:
		m.live.Reset()
		m.liveActive = true
		m.liveID = ""
		if msg.continuation != nil {
			m.liveID = msg.continuation.ID
			m.live.WriteString(msg.continuation.Content)
		}
		m.refresh()

	case assistantTextMsg:
		m.live.WriteString(msg.delta)
		m.refresh()

	case turnEndedMsg:
		m.liveActive = false
		m.liveID = ""
		m.live.Reset()
		m.refresh()

	case noticeMsg:
		m.addNotice(msg.text)

	case statusMsg:
		m.status = msg.text

	case inputEnabledMsg:
		m.inputEnabled = msg.enabled
		if msg.enabled {
			cmds = append(cmds, m.input.Focus())
		} else {
			m.input.Blur()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	status := statusStyle.Render(m.status)
	if !m.inputEnabled {
		status = m.spinner.View() + " " + status
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		inputBorderStyle.Width(max(m.width-2, minWidth)).Render(m.input.View()),
		status,
	)
}

// submit sends the input as a prompt or runs it as a command.
func (m *Model) submit() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") {
		text, err := m.runCommand(line)
		if errors.Is(err, errQuit) {
			m.session.CancelTurn()
			return tea.Quit
		}
		if err != nil {
			m.addNotice(fmt.Sprintf("[Error] %v", err))
			return nil
		}
		m.input.Reset()
		if text != "" {
			m.addNotice(text)
		}
		m.refresh()
		return nil
	}

	if !m.inputEnabled {
		return nil
	}
	if err := m.session.SendPrompt(line); err != nil {
		m.addNotice(fmt.Sprintf("[Error] %v", err))
		return nil
	}
	m.input.Reset()
	m.refresh()
	return nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	transcriptHeight := max(height-chromeHeight, 1)

	if !m.ready {
		m.transcript = viewport.New(width, transcriptHeight)
		m.ready = true
	} else {
		m.transcript.Width = width
		m.transcript.Height = transcriptHeight
	}
	m.input.SetWidth(max(width-4, minWidth))
	m.refresh()
}

func (m *Model) addNotice(text string) {
	m.notices = append(m.notices, notice{after: len(m.session.Messages()), text: text})
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.transcript.SetContent(m.render())
	m.transcript.GotoBottom()
}

// render lays out the conversation with the notices in the order they
// arrived and the reply being streamed at the end.
func (m *Model) render() string {
	messages := m.session.Messages()
	preset := m.session.Preset()
	wrap := max(m.width-2, minWidth)

	var b strings.Builder
	writeNotices := func(after int) {
		for _, n := range m.notices {
			if n.after == after {
				b.WriteString(noticeStyle.Render(wordwrap.String(n.text, wrap)))
				b.WriteString("\n\n")
			}
		}
	}

	writeNotices(0)
	for i, message := range messages {
		content := message.Content
		if m.liveActive && message.ID == m.liveID {
			content = m.live.String()
		}
		b.WriteString(indexStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(label(message, preset.UserRole, preset.AssistantRole))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(content, wrap))
		b.WriteString("\n\n")
		writeNotices(i + 1)
	}
	for _, n := range m.notices {
		if n.after > len(messages) {
			b.WriteString(noticeStyle.Render(wordwrap.String(n.text, wrap)))
			b.WriteString("\n\n")
		}
	}

	if m.liveActive && m.liveID == "" {
		b.WriteString(assistantLabelStyle.Render(displayName(preset.AssistantRole, "Assistant")))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(m.live.String(), wrap))
	}

	return strings.TrimRight(b.String(), "\n")
}

func label(message llms.Message, userRole, assistantRole string) string {
	switch message.Role {
	case llms.MessageRoleUser:
		return userLabelStyle.Render(displayName(userRole, "User"))
	case llms.MessageRoleAssistant:
		return assistantLabelStyle.Render(displayName(assistantRole, "Assistant"))
	default:
		return systemLabelStyle.Render("System")
	}
}

func displayName(role, fallback string) string {
	if role = strings.TrimSpace(role); role != "" {
		return role
	}
	return fallback
}
