package orchestration

import "github.com/koscakluka/ttschat/core/llms"

// Presenter shows the conversation to the user. Calls come from the
// response goroutine and must not block for long.
type Presenter interface {
	// AssistantTurnStarted opens an assistant reply. continuation is the
	// message being continued, or nil for a new reply.
	AssistantTurnStarted(continuation *llms.Message)
	AssistantText(delta string)
	// AssistantTurnEnded closes the reply opened last. message is what was
	// stored in the conversation, or nil when nothing was.
	AssistantTurnEnded(message *llms.Message)
	SystemNotice(text string)
	Status(text string)
	InputEnabled(enabled bool)
}

type noopPresenter struct{}

func (noopPresenter) AssistantTurnStarted(*llms.Message) {}
func (noopPresenter) AssistantText(string)               {}
func (noopPresenter) AssistantTurnEnded(*llms.Message)   {}
func (noopPresenter) SystemNotice(string)                {}
func (noopPresenter) Status(string)                      {}
func (noopPresenter) InputEnabled(bool)                  {}
