package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ttschat/core/llms"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Presenter forwards what the orchestrator reports to the terminal program
// as bubbletea messages, so the model is only touched by the UI goroutine.
type Presenter struct {
	sender Sender
}

func NewPresenter(sender Sender) *Presenter {
	return &Presenter{sender: sender}
}

func (p *Presenter) AssistantTurnStarted(continuation *llms.Message) {
	p.sender.Send(turnStartedMsg{continuation: continuation})
}

func (p *Presenter) AssistantText(delta string) {
	p.sender.Send(assistantTextMsg{delta: delta})
}

func (p *Presenter) AssistantTurnEnded(message *llms.Message) {
	p.sender.Send(turnEndedMsg{message: message})
}

func (p *Presenter) SystemNotice(text string) {
	p.sender.Send(noticeMsg{text: text})
}

func (p *Presenter) Status(text string) {
	p.sender.Send(statusMsg{text: text})
}

func (p *Presenter) InputEnabled(enabled bool) {
	p.sender.Send(inputEnabledMsg{enabled: enabled})
}
