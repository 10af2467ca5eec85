package orchestration

import (
	"errors"
	"fmt"
)

var (
	ErrBusy               = errors.New("a response is already in progress")
	ErrClosed             = errors.New("orchestrator closed")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotContinuable     = errors.New("only the latest assistant reply can be continued")
	ErrNoCompletionClient = errors.New("no completion client configured")
)

// TemplateError is a prompt template that could not be parsed or rendered.
type TemplateError struct {
	Cause error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("failed to render preset template: %v", e.Cause)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
