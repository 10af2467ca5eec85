package orchestration

import (
	"context"
	"errors"
	"strings"

	"github.com/koscakluka/ttschat/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusRequestFailed = "Request failed."
	statusClientError   = "Client error."
	statusInterrupted   = "Response interrupted."
	statusAudioDisabled = "Audio playback disabled after error."
)

// responseTurn describes what a response answers. Exactly one of prompt and
// continuation is set.
type responseTurn struct {
	// prompt is the user message that started the response.
	prompt *llms.Message
	// continuation is the assistant message being extended.
	continuation *llms.Message
}

func (t responseTurn) prefix() string {
	if t.continuation == nil {
		return ""
	}
	return t.continuation.Content
}

// respond runs one response cycle: render the prompt, stream the reply,
// show and speak it, then store or discard it. Every path ends the
// assistant turn and gives control back to the user.
func (o *Orchestrator) respond(ctx context.Context, turn responseTurn) {
	ctx, span := tracer.Start(ctx, "respond", trace.WithAttributes(
		attribute.Bool("response.continuation", turn.continuation != nil),
	))
	defer span.End()

	o.presenter.AssistantTurnStarted(clonePtr(turn.continuation))

	reply := newReplyBuffer(turn.prefix())
	err := runSafely("response", func() error {
		return o.streamReply(ctx, turn, reply)
	})
	cancelled := ctx.Err() != nil

	var (
		stored  *llms.Message
		status  string
		outcome string
	)
	switch {
	case err == nil:
		stored = o.storeReply(turn, reply)
		outcome = "completed"
		if cancelled {
			status = statusInterrupted
			outcome = "interrupted"
		} else if stored != nil {
			o.flushRemainder(ctx, reply)
		}
	case errors.Is(err, llms.ErrRequestFailed):
		stored = o.discardTurn(turn)
		o.presenter.SystemNotice("[Request Error] " + err.Error())
		status = statusRequestFailed
		outcome = "request_error"
	default:
		stored = o.discardTurn(turn)
		o.presenter.SystemNotice("[Client Error] " + err.Error())
		status = statusClientError
		outcome = "client_error"
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "response failed", "error", err, "outcome", outcome)
	}
	span.SetAttributes(
		attribute.String("response.outcome", outcome),
		attribute.Int("response.length", len(reply.Generated())),
	)
	responseOutcomes.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if status != "" {
		o.presenter.Status(status)
	}
	o.presenter.AssistantTurnEnded(stored)
	o.finishResponse()
}

func (o *Orchestrator) streamReply(ctx context.Context, turn responseTurn, reply *replyBuffer) error {
	if o.llm == nil {
		return ErrNoCompletionClient
	}

	o.mu.Lock()
	preset := o.preset
	settings := o.settings
	o.mu.Unlock()

	prompt, err := renderPrompt(preset, o.conversation.Messages(), turn.continuation != nil)
	if err != nil {
		return err
	}

	stream := o.llm.PromptWithStream(prompt, settings.promptOptions(preset.StopSequences)...)
	for delta, err := range stream.Deltas(ctx) {
		if err != nil {
			return err
		}

		chunk := reply.Add(delta)
		if chunk == "" {
			continue
		}
		o.presenter.AssistantText(chunk)

		if ctx.Err() != nil {
			break
		}
		o.speakSegments(ctx, reply, settings)
	}

	return nil
}

// speakSegments hands every completed sentence or line of the reply to
// speech.
func (o *Orchestrator) speakSegments(ctx context.Context, reply *replyBuffer, settings Settings) {
	if !o.isSpeaking() {
		return
	}

	for _, segment := range reply.PendingSegments() {
		if ctx.Err() != nil {
			return
		}
		if result := o.speaker.speak(segment.Text, settings.Voice, settings.Speed); result.degraded {
			o.disableAudio(result.reason)
			return
		}
		reply.MarkSpoken(segment.End)
	}
}

func (o *Orchestrator) flushRemainder(ctx context.Context, reply *replyBuffer) {
	if !o.isSpeaking() || ctx.Err() != nil {
		return
	}

	remainder := reply.TakeRemainder()
	if remainder == "" {
		return
	}

	o.mu.Lock()
	settings := o.settings
	o.mu.Unlock()

	if result := o.speaker.speak(remainder, settings.Voice, settings.Speed); result.degraded {
		o.disableAudio(result.reason)
	}
}

// storeReply writes the reply into the conversation. A new reply that came
// back blank takes its prompt with it; a blank continuation keeps the text
// it started from.
func (o *Orchestrator) storeReply(turn responseTurn, reply *replyBuffer) *llms.Message {
	text := reply.String()

	if turn.continuation != nil {
		message := *turn.continuation
		if strings.TrimSpace(reply.Generated()) != "" {
			message.Content = text
		}
		if !o.conversation.Replace(message) {
			o.conversation.Append(message)
		}
		return &message
	}

	if strings.TrimSpace(text) == "" {
		o.conversation.Remove(turn.prompt.ID)
		return nil
	}

	o.mu.Lock()
	name := o.assistantAPIName()
	o.mu.Unlock()

	message := llms.NewMessage(llms.MessageRoleAssistant, name, text)
	o.conversation.Append(message)
	return &message
}

// discardTurn forgets a failed response. The prompt of a new reply is
// removed, a continued message stays as it was.
func (o *Orchestrator) discardTurn(turn responseTurn) *llms.Message {
	if turn.prompt != nil {
		o.conversation.Remove(turn.prompt.ID)
		return nil
	}
	return clonePtr(turn.continuation)
}

func (o *Orchestrator) disableAudio(reason error) {
	o.mu.Lock()
	if o.textOnly {
		o.mu.Unlock()
		return
	}
	o.textOnly = true
	o.audioDisabled = true
	o.mu.Unlock()

	logger.Warn("audio disabled", "error", reason)
	o.presenter.SystemNotice("[Audio Error] " + reason.Error())
	o.presenter.Status(statusAudioDisabled)
}

func clonePtr(message *llms.Message) *llms.Message {
	if message == nil {
		return nil
	}
	clone := *message
	return &clone
}
