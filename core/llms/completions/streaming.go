package completions

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ttschat/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	chunkPrefix = "data:"
	endMessage  = "[DONE]"

	maxLineSize = 1 << 20
)

type Stream struct {
	client  *Client
	prompt  string
	options llms.StreamingPromptOptions
}

type requestBody struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	Stream      bool     `json:"stream"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Text  string `json:"text"`
		Delta struct {
			Text    string `json:"text"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Deltas sends the request and yields every non-empty text delta. A network
// failure yields a *NetworkError, an unparsable line a *ProtocolError; both
// end the sequence. Cancelling ctx ends it without an error.
func (s *Stream) Deltas(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt completion stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.model", s.options.Model),
			attribute.Int("request.prompt_length", len(s.prompt)),
		)

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "completion stream failed", "error", err)
			yield("", err)
		}

		requestBodyBytes, err := json.Marshal(requestBody{
			Model:       s.options.Model,
			Prompt:      s.prompt,
			Temperature: s.options.Temperature,
			Stream:      true,
			MaxTokens:   max(s.options.MaxTokens, 0),
			Stop:        s.options.StopSequences,
			Seed:        s.options.Seed,
		})
		if err != nil {
			fail(&ProtocolError{Cause: fmt.Errorf("error marshalling JSON: %w", err)})
			return
		}

		requestCtx, cancelRequest := context.WithCancel(ctx)
		defer cancelRequest()
		watchdog := newIdleWatchdog(s.client.timeout, cancelRequest)
		defer watchdog.Stop()

		req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, s.client.url(), bytes.NewReader(requestBodyBytes))
		if err != nil {
			fail(&NetworkError{Cause: fmt.Errorf("error creating HTTP request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		span.SetAttributes(attribute.String("request.url", req.URL.String()))

		requestStarted := time.Now()
		span.AddEvent("request started")
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if watchdog.Fired() {
				err = ErrIdleTimeout
			}
			fail(&NetworkError{Cause: err})
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			fail(&NetworkError{
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(errorBody)),
				Cause:      fmt.Errorf("non-OK HTTP status: %s", resp.Status),
			})
			return
		}

		deltas := 0
		defer func() {
			span.SetAttributes(attribute.Int("response.deltas", deltas))
			streamDeltas.Add(ctx, int64(deltas))
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			watchdog.Reset()
			if ctx.Err() != nil {
				return
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, chunkPrefix) {
				continue
			}
			chunk := strings.TrimSpace(strings.TrimPrefix(line, chunkPrefix))
			if chunk == "" {
				continue
			}
			if chunk == endMessage {
				return
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				fail(&ProtocolError{Line: chunk, Cause: err})
				return
			}

			text := responseBody.text()
			if text == "" {
				continue
			}

			if deltas == 0 {
				span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestStarted).Seconds()))
				span.AddEvent("received first chunk")
			}
			deltas++
			watchdog.Stop()
			if !yield(text, nil) {
				return
			}
			watchdog.Reset()
		}

		if err := scanner.Err(); err != nil {
			if ctx.Err() != nil {
				return
			}
			if watchdog.Fired() {
				err = ErrIdleTimeout
			}
			fail(&NetworkError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("error reading stream: %w", err)})
		}
	}
}

func (b streamingResponseBody) text() string {
	if len(b.Choices) == 0 {
		return ""
	}

	choice := b.Choices[0]
	switch {
	case choice.Text != "":
		return choice.Text
	case choice.Delta.Text != "":
		return choice.Delta.Text
	}
	return choice.Delta.Content
}

// idleWatchdog cancels the request when no progress was reported for the
// configured timeout.
type idleWatchdog struct {
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleWatchdog(timeout time.Duration, onIdle func()) *idleWatchdog {
	w := &idleWatchdog{timeout: timeout}
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			w.fired.Store(true)
			onIdle()
		})
	}
	return w
}

func (w *idleWatchdog) Reset() {
	if w.timer != nil {
		w.timer.Reset(w.timeout)
	}
}

func (w *idleWatchdog) Stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *idleWatchdog) Fired() bool {
	return w.fired.Load()
}
