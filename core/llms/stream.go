package llms

import (
	"context"
	"iter"
)

// Stream is a reply that is being generated. Deltas yields the new text as
// it arrives; the sequence ends after the last delta, after the first error,
// or silently once ctx is done.
type Stream interface {
	Deltas(ctx context.Context) iter.Seq2[string, error]
}

// LLMWithStream prompts a completion endpoint with a fully rendered prompt.
type LLMWithStream interface {
	PromptWithStream(prompt string, opts ...StreamingPromptOption) Stream
}
