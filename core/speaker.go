package orchestration

import (
	"fmt"
	"sync"
)

// SpeechPipeline speaks text segments in order. *speech.Pipeline implements
// it.
type SpeechPipeline interface {
	Speak(text, voice string, speed float64) error
	Stop()
}

type SpeechPipelineFactory func() (SpeechPipeline, error)

// speechResult is what the response goroutine learns from handing text to
// speech. A degraded result switches the session to text only.
type speechResult struct {
	degraded bool
	reason   error
}

// speaker owns the current speech pipeline and builds it on demand.
type speaker struct {
	mu      sync.Mutex
	factory SpeechPipelineFactory
	current SpeechPipeline
}

func (s *speaker) pipeline() (SpeechPipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}
	if s.factory == nil {
		return nil, fmt.Errorf("no speech pipeline configured")
	}

	pipeline, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start speech: %w", err)
	}
	s.current = pipeline
	return pipeline, nil
}

func (s *speaker) speak(text, voice string, speed float64) speechResult {
	pipeline, err := s.pipeline()
	if err != nil {
		return speechResult{degraded: true, reason: err}
	}
	if err := pipeline.Speak(text, voice, speed); err != nil {
		return speechResult{degraded: true, reason: err}
	}
	return speechResult{}
}

// close stops the current pipeline. Pending speech is discarded.
func (s *speaker) close() {
	s.mu.Lock()
	pipeline := s.current
	s.current = nil
	s.mu.Unlock()

	if pipeline != nil {
		pipeline.Stop()
	}
}
