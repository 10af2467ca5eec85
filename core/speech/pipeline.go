package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultAudioQueueCapacity = 3

type State int

const (
	// StateIdle means no worker has been started yet.
	StateIdle State = iota
	StateRunning
	// StateDraining means Stop was called and the workers are finishing the
	// item they hold.
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pipeline speaks text segments in order. One worker synthesizes queued
// segments, another plays the resulting audio, so the next segment is being
// synthesized while the current one plays.
//
// The first failure of either worker is kept. From then on Speak reports it
// instead of accepting more text, while already accepted work continues.
type Pipeline struct {
	synthesizer texttospeech.Synthesizer
	player      audio.Player

	audioQueueCapacity int

	mu            sync.Mutex
	state         State
	requests      []speakRequest
	requestSignal chan struct{}
	audioQueue    chan queuedAudio
	stop          chan struct{}
	stopOnce      sync.Once
	pending       int
	idle          chan struct{}
	wg            sync.WaitGroup

	errMu sync.Mutex
	err   error
}

type PipelineOption func(*Pipeline)

// WithAudioQueueCapacity bounds how many synthesized buffers may wait for
// playback. Synthesis blocks while the queue is full.
func WithAudioQueueCapacity(capacity int) PipelineOption {
	return func(p *Pipeline) {
		if capacity > 0 {
			p.audioQueueCapacity = capacity
		}
	}
}

type speakRequest struct {
	id    uuid.UUID
	text  string
	voice string
	speed float64
}

type queuedAudio struct {
	request speakRequest
	buffer  audio.Buffer
	// last marks the end of a request. It carries no audio.
	last bool
}

func NewPipeline(synthesizer texttospeech.Synthesizer, player audio.Player, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		synthesizer:        synthesizer,
		player:             player,
		audioQueueCapacity: defaultAudioQueueCapacity,
		requestSignal:      make(chan struct{}, 1),
		stop:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.audioQueue = make(chan queuedAudio, p.audioQueueCapacity)

	return p
}

// Start launches the workers. Speak starts them on first use, so calling
// Start is only needed to pay the start-up cost early.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.startLocked()
}

func (p *Pipeline) startLocked() error {
	switch p.state {
	case StateRunning:
		return nil
	case StateDraining, StateStopped:
		return ErrPipelineStopped
	}

	p.state = StateRunning
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.generate()
	}()
	go func() {
		defer p.wg.Done()
		p.playback()
	}()

	return nil
}

// Speak queues text for synthesis and playback and returns without waiting
// for either. Blank text is ignored.
//
// Once a worker has failed, Speak returns that failure (wrapped in a
// *PipelineError) without queuing anything. After Stop it returns
// ErrPipelineStopped.
func (p *Pipeline) Speak(text, voice string, speed float64) error {
	if err := p.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.startLocked(); err != nil {
		return err
	}

	p.requests = append(p.requests, speakRequest{id: uuid.New(), text: text, voice: voice, speed: speed})
	if p.pending == 0 {
		p.idle = make(chan struct{})
	}
	p.pending++
	p.signalRequest()

	return nil
}

// Err returns the first failure recorded by either worker, or nil.
func (p *Pipeline) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// WaitIdle blocks until every accepted segment has been synthesized and
// played, then returns the recorded failure if there is one.
func (p *Pipeline) WaitIdle(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	pending := p.pending
	p.mu.Unlock()

	if pending > 0 {
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return p.Err()
}

// Stop drops queued text and audio and waits for both workers to finish the
// item they hold. It is safe to call more than once.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	wasIdle := p.state == StateIdle
	switch p.state {
	case StateIdle:
		p.state = StateStopped
	case StateRunning:
		p.state = StateDraining
		p.requests = nil
		p.markIdleLocked()
	}
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Unlock()

	if wasIdle {
		return
	}

	p.drainAudio()
	p.wg.Wait()
	p.drainAudio()

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
}

func (p *Pipeline) generate() {
	for {
		request, ok := p.nextRequest()
		if !ok {
			return
		}

		p.synthesize(request)

		if !p.enqueueAudio(queuedAudio{request: request, last: true}) {
			return
		}
	}
}

func (p *Pipeline) nextRequest() (speakRequest, bool) {
	for {
		p.mu.Lock()
		if p.state != StateRunning {
			p.mu.Unlock()
			return speakRequest{}, false
		}
		if len(p.requests) > 0 {
			request := p.requests[0]
			p.requests = p.requests[1:]
			p.mu.Unlock()
			return request, true
		}
		p.mu.Unlock()

		select {
		case <-p.requestSignal:
		case <-p.stop:
			return speakRequest{}, false
		}
	}
}

func (p *Pipeline) synthesize(request speakRequest) {
	ctx, span := tracer.Start(context.Background(), "synthesize speech segment", trace.WithAttributes(
		attribute.String("speech.request_id", request.id.String()),
		attribute.String("speech.voice", request.voice),
		attribute.Int("speech.text_length", len(request.text)),
	))
	defer span.End()

	started := time.Now()
	buffers := 0
	err := recovered(func() error {
		for buffer, err := range p.synthesizer.Synthesize(ctx, request.text, request.voice, request.speed) {
			if err != nil {
				return err
			}
			if buffers == 0 {
				synthesisLatency.Record(ctx, time.Since(started).Seconds())
			}
			buffers++
			if !p.enqueueAudio(queuedAudio{request: request, buffer: buffer}) {
				return nil
			}
		}
		return nil
	})
	span.SetAttributes(attribute.Int("speech.buffers", buffers))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.fail(ctx, &PipelineError{Stage: StageSynthesis, Text: request.text, Cause: err})
	}
}

func (p *Pipeline) playback() {
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		select {
		case item := <-p.audioQueue:
			if item.last {
				p.requestFinished()
				continue
			}
			p.play(item)
		case <-p.stop:
			return
		}
	}
}

func (p *Pipeline) play(item queuedAudio) {
	ctx, span := tracer.Start(context.Background(), "play speech audio", trace.WithAttributes(
		attribute.String("speech.request_id", item.request.id.String()),
		attribute.Int64("audio.duration_ms", item.buffer.Duration().Milliseconds()),
	))
	defer span.End()

	err := recovered(func() error {
		return p.player.Play(ctx, item.buffer)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.fail(ctx, &PipelineError{Stage: StagePlayback, Text: item.request.text, Cause: err})
	}
}

func (p *Pipeline) requestFinished() {
	spokenSegments.Add(context.Background(), 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == 0 {
		return
	}
	p.pending--
	if p.pending == 0 {
		p.markIdleLocked()
	}
}

func (p *Pipeline) markIdleLocked() {
	p.pending = 0
	if p.idle != nil {
		close(p.idle)
		p.idle = nil
	}
}

func (p *Pipeline) enqueueAudio(item queuedAudio) bool {
	select {
	case <-p.stop:
		return false
	default:
	}

	select {
	case p.audioQueue <- item:
		return true
	case <-p.stop:
		return false
	}
}

func (p *Pipeline) drainAudio() {
	for {
		select {
		case <-p.audioQueue:
		default:
			return
		}
	}
}

// fail keeps err if no failure has been recorded yet.
func (p *Pipeline) fail(ctx context.Context, err *PipelineError) {
	stageFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("speech.stage", string(err.Stage))))

	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err != nil {
		logger.WarnContext(ctx, "speech pipeline failure after degradation", "stage", err.Stage, "error", err.Cause)
		return
	}
	p.err = err
	logger.ErrorContext(ctx, "speech pipeline degraded", "stage", err.Stage, "error", err.Cause)
}

func (p *Pipeline) signalRequest() {
	select {
	case p.requestSignal <- struct{}{}:
	default:
	}
}

func recovered(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return f()
}
