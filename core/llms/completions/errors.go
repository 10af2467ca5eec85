package completions

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ttschat/core/llms"
)

// ErrIdleTimeout is the cause of a NetworkError raised when the server sent
// nothing for longer than the configured timeout.
var ErrIdleTimeout = errors.New("completion stream idle timeout")

// NetworkError is a failure to reach the server or a non-2xx answer.
// StatusCode is zero when no response was received.
type NetworkError struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("completion request failed with status %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("completion request failed with status %d", e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("completion request failed: %v", e.Cause)
	}
	return "completion request failed"
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

func (e *NetworkError) Is(target error) bool {
	return target == llms.ErrRequestFailed
}

// ProtocolError is a stream line that could not be understood.
type ProtocolError struct {
	Line  string
	Cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("failed to parse stream chunk %q: %v", e.Line, e.Cause)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

func (e *ProtocolError) Is(target error) bool {
	return target == llms.ErrMalformedResponse
}
