package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/presets"
)

const shutdownTimeout = 2 * time.Second

const (
	statusAwaiting   = "Awaiting response..."
	statusContinuing = "Continuing response..."
	statusStopping   = "Stopping response..."
	statusUpdated    = "Message updated."
	statusDeleted    = "Message deleted."
)

// Orchestrator runs a chat session: it keeps the conversation, streams
// replies from the completion client, shows them through the presenter and
// speaks them through the speech pipeline. At most one reply is produced at
// a time.
type Orchestrator struct {
	mu sync.Mutex

	llm       llms.LLMWithStream
	presenter Presenter
	speaker   speaker

	settings      Settings
	preset        presets.Preset
	textOnly      bool
	audioDisabled bool

	conversation conversation

	active    *activeResponse
	closed    bool
	closeOnce sync.Once
}

type activeResponse struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		presenter: noopPresenter{},
		settings:  DefaultSettings(),
		preset:    presets.Default(""),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.conversation.SetSystem(strings.TrimSpace(o.preset.SystemPrompt))
	return o
}

// SendPrompt adds a user message and starts a reply to it.
func (o *Orchestrator) SendPrompt(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if err := o.availableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	prompt := llms.NewMessage(llms.MessageRoleUser, o.userAPIName(), text)
	o.conversation.Append(prompt)
	ctx := o.beginLocked()
	o.mu.Unlock()

	o.presenter.InputEnabled(false)
	o.presenter.Status(statusAwaiting)
	o.start(ctx, responseTurn{prompt: &prompt})
	return nil
}

// ContinueLast extends the latest message, which must be an assistant reply.
func (o *Orchestrator) ContinueLast() error {
	o.mu.Lock()
	if err := o.availableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	last, ok := o.conversation.Last()
	if !ok || last.Role != llms.MessageRoleAssistant {
		o.mu.Unlock()
		return ErrNotContinuable
	}
	ctx := o.beginLocked()
	o.mu.Unlock()

	o.presenter.InputEnabled(false)
	o.presenter.SystemNotice("Continuing the last reply.")
	o.presenter.Status(statusContinuing)
	o.start(ctx, responseTurn{continuation: &last})
	return nil
}

// EditMessage replaces the content of a message. Editing the system message
// changes the system prompt.
func (o *Orchestrator) EditMessage(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if err := o.availableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	message, ok := o.conversation.Find(id)
	if !ok {
		o.mu.Unlock()
		return ErrMessageNotFound
	}
	message.Content = text
	o.conversation.Replace(message)
	if message.Role == llms.MessageRoleSystem {
		o.preset.SystemPrompt = text
	}
	o.mu.Unlock()

	o.presenter.Status(statusUpdated)
	return nil
}

// DeleteMessage removes a message. Deleting the system message clears the
// system prompt.
func (o *Orchestrator) DeleteMessage(id string) error {
	o.mu.Lock()
	if err := o.availableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	removed, ok := o.conversation.Remove(id)
	if !ok {
		o.mu.Unlock()
		return ErrMessageNotFound
	}
	if removed.Role == llms.MessageRoleSystem {
		o.preset.SystemPrompt = ""
	}
	o.mu.Unlock()

	o.presenter.Status(statusDeleted)
	return nil
}

// SetSystemPrompt keeps prompt as the first message of the conversation. An
// empty prompt removes the system message.
func (o *Orchestrator) SetSystemPrompt(prompt string) error {
	prompt = strings.TrimSpace(prompt)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.availableLocked(); err != nil {
		return err
	}
	o.preset.SystemPrompt = prompt
	o.conversation.SetSystem(prompt)
	return nil
}

// ApplyPreset switches roles, template, stop sequences and system prompt.
// The conversation itself is kept.
func (o *Orchestrator) ApplyPreset(preset presets.Preset) error {
	o.mu.Lock()
	if err := o.availableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.preset = preset.Clone()
	o.conversation.SetSystem(strings.TrimSpace(preset.SystemPrompt))
	o.mu.Unlock()

	logger.Info("preset applied", "preset", preset.Name, "path", preset.Path)
	o.presenter.Status(o.ReadyStatus())
	return nil
}

// CancelTurn stops the reply in progress. No further segments are handed to
// speech; segments already queued still play to the end. Without a reply in
// progress it does nothing.
func (o *Orchestrator) CancelTurn() {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()

	if active == nil {
		return
	}

	active.cancel()
	o.presenter.Status(statusStopping)
}

func (o *Orchestrator) Messages() []llms.Message {
	return o.conversation.Messages()
}

func (o *Orchestrator) IsBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active != nil
}

func (o *Orchestrator) IsTextOnly() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.textOnly
}

func (o *Orchestrator) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings
}

func (o *Orchestrator) Preset() presets.Preset {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.preset.Clone()
}

// ReadyStatus describes the session when no reply is in progress.
func (o *Orchestrator) ReadyStatus() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.audioDisabled:
		return fmt.Sprintf("Ready (audio playback disabled). Model: %s", o.settings.Model)
	case o.textOnly:
		return fmt.Sprintf("Ready (text only). Model: %s", o.settings.Model)
	default:
		return fmt.Sprintf("Ready. Model: %s | Voice: %s", o.settings.Model, o.settings.Voice)
	}
}

// Wait blocks until the reply in progress, if any, has finished.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()

	if active == nil {
		return nil
	}
	select {
	case <-active.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels the reply in progress, waits a short while for it and stops
// the speech pipeline. Further operations return ErrClosed.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		active := o.active
		o.mu.Unlock()

		if active != nil {
			active.cancel()
			select {
			case <-active.done:
			case <-time.After(shutdownTimeout):
				logger.Warn("response did not stop in time", "timeout", shutdownTimeout)
			}
		}
		o.speaker.close()
	})
	return nil
}

func (o *Orchestrator) availableLocked() error {
	if o.closed {
		return ErrClosed
	}
	if o.active != nil {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) beginLocked() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	o.active = &activeResponse{cancel: cancel, done: make(chan struct{})}
	return ctx
}

func (o *Orchestrator) start(ctx context.Context, turn responseTurn) {
	o.mu.Lock()
	active := o.active
	o.mu.Unlock()

	go func() {
		defer close(active.done)
		defer active.cancel()
		o.respond(ctx, turn)
	}()
}

func (o *Orchestrator) finishResponse() {
	o.mu.Lock()
	o.active = nil
	o.mu.Unlock()

	o.presenter.Status(o.ReadyStatus())
	o.presenter.InputEnabled(true)
}

func (o *Orchestrator) isSpeaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.textOnly
}

func (o *Orchestrator) userAPIName() string {
	return sanitizeAlias(o.preset.UserRole, presets.DefaultUserRole)
}

func (o *Orchestrator) assistantAPIName() string {
	return sanitizeAlias(o.preset.AssistantRole, presets.DefaultAssistantRole)
}
