package tui

import "github.com/koscakluka/ttschat/core/llms"

type turnStartedMsg struct {
	continuation *llms.Message
}

type assistantTextMsg struct {
	delta string
}

type turnEndedMsg struct {
	message *llms.Message
}

type noticeMsg struct {
	text string
}

type statusMsg struct {
	text string
}

type inputEnabledMsg struct {
	enabled bool
}
