package llms

import (
	"fmt"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func ParseMessageRole(role string) (MessageRole, error) {
	switch r := MessageRole(role); r {
	case MessageRoleSystem, MessageRoleUser, MessageRoleAssistant:
		return r, nil
	}
	return "", fmt.Errorf("unknown message role %q", role)
}

// Message is a single entry of the conversation log. Name is the alias the
// prompt template uses for the speaker, it is empty for system messages.
type Message struct {
	ID      string
	Role    MessageRole
	Name    string
	Content string
}

func NewMessage(role MessageRole, name, content string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Name:    name,
		Content: content,
	}
}
