package llms

import "slices"

// StreamingPromptOptions are the sampling parameters of a completion request.
// Zero values mean the server default, except Temperature which is always
// sent.
type StreamingPromptOptions struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	StopSequences []string
	Seed          *int
}

type StreamingPromptOption func(*StreamingPromptOptions)

func WithModel(model string) StreamingPromptOption {
	return func(o *StreamingPromptOptions) { o.Model = model }
}

func WithTemperature(temperature float64) StreamingPromptOption {
	return func(o *StreamingPromptOptions) { o.Temperature = temperature }
}

// WithMaxTokens limits the reply length. Zero leaves the limit to the server.
func WithMaxTokens(maxTokens int) StreamingPromptOption {
	return func(o *StreamingPromptOptions) { o.MaxTokens = maxTokens }
}

func WithStopSequences(stop ...string) StreamingPromptOption {
	return func(o *StreamingPromptOptions) { o.StopSequences = slices.Clone(stop) }
}

func WithSeed(seed int) StreamingPromptOption {
	return func(o *StreamingPromptOptions) { o.Seed = &seed }
}
