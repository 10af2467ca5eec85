package speech

import (
	"errors"
	"fmt"
)

// ErrPipelineStopped is returned by Speak once Stop has been called.
var ErrPipelineStopped = errors.New("speech pipeline stopped")

type Stage string

const (
	StageSynthesis Stage = "synthesis"
	StagePlayback  Stage = "playback"
)

// PipelineError is the first failure a pipeline worker ran into. Text is the
// segment that was being processed.
type PipelineError struct {
	Stage Stage
	Text  string
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}
