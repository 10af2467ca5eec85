// Package completions streams text from an OpenAI compatible legacy
// completions endpoint (/v1/completions), such as the one LM Studio serves.
package completions

import (
	"net/http"
	"strings"
	"time"

	"github.com/koscakluka/ttschat/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	completionsPath = "/v1/completions"
	defaultTimeout  = 120 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client. Its transport is used as is,
// without tracing.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds how long the client waits for the response headers and
// then for each following line. It does not bound the whole reply. Zero or
// negative disables the timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// PromptWithStream prepares a streaming completion of prompt. Nothing is sent
// until the returned stream is iterated.
func (c *Client) PromptWithStream(prompt string, opts ...llms.StreamingPromptOption) llms.Stream {
	var options llms.StreamingPromptOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Stream{
		client:  c,
		prompt:  prompt,
		options: options,
	}
}

func (c *Client) url() string {
	return c.baseURL + completionsPath
}
