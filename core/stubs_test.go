package orchestration

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/speech"
)

// scriptedReply is what scriptedLLM streams for one prompt.
type scriptedReply struct {
	deltas []string
	err    error
	// block keeps the stream open after the deltas until ctx is done.
	block bool
	panic bool
}

type scriptedLLM struct {
	mu      sync.Mutex
	replies []scriptedReply
	prompts []string
	opts    []llms.StreamingPromptOptions
}

func (l *scriptedLLM) PromptWithStream(prompt string, opts ...llms.StreamingPromptOption) llms.Stream {
	l.mu.Lock()
	defer l.mu.Unlock()

	var options llms.StreamingPromptOptions
	for _, opt := range opts {
		opt(&options)
	}
	l.prompts = append(l.prompts, prompt)
	l.opts = append(l.opts, options)

	reply := scriptedReply{}
	if len(l.replies) > 0 {
		reply, l.replies = l.replies[0], l.replies[1:]
	}
	return reply
}

func (l *scriptedLLM) lastPrompt() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.prompts) == 0 {
		return ""
	}
	return l.prompts[len(l.prompts)-1]
}

func (r scriptedReply) Deltas(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.panic {
			panic("stream exploded")
		}
		for _, delta := range r.deltas {
			if ctx.Err() != nil {
				return
			}
			if !yield(delta, nil) {
				return
			}
		}
		if r.err != nil {
			yield("", r.err)
			return
		}
		if r.block {
			<-ctx.Done()
		}
	}
}

type recordingPresenter struct {
	mu      sync.Mutex
	text    strings.Builder
	notices []string
	status  []string
	input   []bool
	started []*llms.Message
	ended   []*llms.Message

	textSeen chan struct{}
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{textSeen: make(chan struct{}, 1)}
}

func (p *recordingPresenter) AssistantTurnStarted(continuation *llms.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, continuation)
}

func (p *recordingPresenter) AssistantText(delta string) {
	p.mu.Lock()
	p.text.WriteString(delta)
	p.mu.Unlock()

	select {
	case p.textSeen <- struct{}{}:
	default:
	}
}

func (p *recordingPresenter) AssistantTurnEnded(message *llms.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, message)
}

func (p *recordingPresenter) SystemNotice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, text)
}

func (p *recordingPresenter) Status(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = append(p.status, text)
}

func (p *recordingPresenter) InputEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = append(p.input, enabled)
}

func (p *recordingPresenter) shownText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text.String()
}

func (p *recordingPresenter) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.status)
}

func (p *recordingPresenter) systemNotices() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.notices)
}

func (p *recordingPresenter) lastEnded() *llms.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ended) == 0 {
		return nil
	}
	return p.ended[len(p.ended)-1]
}

type recordingPipeline struct {
	mu       sync.Mutex
	spoken   []string
	voices   []string
	speakErr error
	stops    int
}

func (p *recordingPipeline) Speak(text, voice string, speed float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.speakErr != nil {
		return p.speakErr
	}
	p.spoken = append(p.spoken, text)
	p.voices = append(p.voices, voice)
	return nil
}

func (p *recordingPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *recordingPipeline) spokenText() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.spoken)
}

func (p *recordingPipeline) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

// pipelineFactory hands out pipeline and counts how often it was asked.
type pipelineFactory struct {
	mu       sync.Mutex
	pipeline *recordingPipeline
	err      error
	builds   int
}

func (f *pipelineFactory) build() (SpeechPipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.builds++
	if f.err != nil {
		return nil, f.err
	}
	return f.pipeline, nil
}

func newTestOrchestrator(t *testing.T, llm *scriptedLLM, opts ...OrchestratorOption) (*Orchestrator, *recordingPresenter, *recordingPipeline) {
	t.Helper()

	presenter := newRecordingPresenter()
	pipeline := &recordingPipeline{}
	factory := &pipelineFactory{pipeline: pipeline}

	opts = append([]OrchestratorOption{
		WithCompletionClient(llm),
		WithPresenter(presenter),
		WithSpeechPipelineFactory(factory.build),
	}, opts...)

	o := NewOrchestrator(opts...)
	t.Cleanup(func() { _ = o.Close() })
	return o, presenter, pipeline
}

func waitForResponse(t *testing.T, o *Orchestrator) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Wait(ctx); err != nil {
		t.Fatalf("timed out waiting for the response to finish")
	}
}

func requestError(msg string) error {
	return fmt.Errorf("%w: %s", llms.ErrRequestFailed, msg)
}

var errClient = errors.New("unexpected field in reply")

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// countingPipeline counts the segments handed to a real speech pipeline.
type countingPipeline struct {
	*speech.Pipeline

	mu     sync.Mutex
	spoken int
}

func (p *countingPipeline) Speak(text, voice string, speed float64) error {
	if err := p.Pipeline.Speak(text, voice, speed); err != nil {
		return err
	}
	p.mu.Lock()
	p.spoken++
	p.mu.Unlock()
	return nil
}

func (p *countingPipeline) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spoken
}

// echoSynthesizer yields one sample per byte of text.
type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(ctx context.Context, text, voice string, speed float64) iter.Seq2[audio.Buffer, error] {
	return func(yield func(audio.Buffer, error) bool) {
		yield(audio.NewBuffer(make([]float32, len(text))), nil)
	}
}

// slowPlayer takes delay to play each buffer.
type slowPlayer struct {
	delay time.Duration

	mu     sync.Mutex
	played int
}

func (p *slowPlayer) Play(ctx context.Context, buffer audio.Buffer) error {
	time.Sleep(p.delay)
	p.mu.Lock()
	p.played++
	p.mu.Unlock()
	return nil
}

func (p *slowPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}
