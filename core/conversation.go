package orchestration

import (
	"slices"
	"sync"

	"github.com/koscakluka/ttschat/core/llms"
)

// conversation is the ordered message log. A system message, when present,
// is always the first entry.
type conversation struct {
	mu       sync.RWMutex
	messages []llms.Message
}

func (c *conversation) Messages() []llms.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.messages)
}

func (c *conversation) Append(message llms.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, message)
}

func (c *conversation) Find(id string) (llms.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexLocked(id); i >= 0 {
		return c.messages[i], true
	}
	return llms.Message{}, false
}

func (c *conversation) Last() (llms.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return llms.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Replace stores message over the entry with the same ID.
func (c *conversation) Replace(message llms.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(message.ID)
	if i < 0 {
		return false
	}
	c.messages[i] = message
	return true
}

func (c *conversation) Remove(id string) (llms.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(id)
	if i < 0 {
		return llms.Message{}, false
	}
	removed := c.messages[i]
	c.messages = slices.Delete(c.messages, i, i+1)
	return removed, true
}

// SetSystem keeps content as the leading system message, or removes that
// message when content is empty.
func (c *conversation) SetSystem(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hasSystem := len(c.messages) > 0 && c.messages[0].Role == llms.MessageRoleSystem
	switch {
	case content == "" && hasSystem:
		c.messages = slices.Delete(c.messages, 0, 1)
	case content == "":
	case hasSystem:
		c.messages[0].Content = content
	default:
		c.messages = slices.Insert(c.messages, 0, llms.NewMessage(llms.MessageRoleSystem, "", content))
	}
}

func (c *conversation) indexLocked(id string) int {
	return slices.IndexFunc(c.messages, func(m llms.Message) bool { return m.ID == id })
}
