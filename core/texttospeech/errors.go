package texttospeech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVoice is returned when the requested voice does not exist.
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrSynthesisFailed is returned when the engine could not produce audio.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// ConfigurationError reports an engine that cannot run because something it
// needs is missing. Path names the missing file or directory and Hint tells
// the user how to obtain it.
type ConfigurationError struct {
	Path  string
	Hint  string
	Cause error
}

func (e *ConfigurationError) Error() string {
	msg := "missing " + e.Path
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// SynthesisError is a failure reported by the engine for a specific request.
type SynthesisError struct {
	Engine  string
	Message string
	Cause   error
}

func (e *SynthesisError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Engine, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the cause and ErrSynthesisFailed to errors.Is.
func (e *SynthesisError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrSynthesisFailed}
	}
	return []error{ErrSynthesisFailed, e.Cause}
}
