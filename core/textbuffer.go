package orchestration

import (
	"strings"

	"github.com/koscakluka/ttschat/core/speech"
)

// replyBuffer accumulates the reply of one response and remembers how much
// of it was handed to speech. It belongs to the response goroutine.
type replyBuffer struct {
	text       strings.Builder
	prefixLen  int
	spokenUpTo int
}

// newReplyBuffer starts from prefix, the text of a continued message, which
// counts as already spoken.
func newReplyBuffer(prefix string) *replyBuffer {
	b := &replyBuffer{prefixLen: len(prefix), spokenUpTo: len(prefix)}
	b.text.WriteString(prefix)
	return b
}

// Add appends the part of delta that does not repeat the end of the reply
// and returns it.
func (b *replyBuffer) Add(delta string) string {
	chunk := speech.TrimOverlap(b.text.String(), delta)
	b.text.WriteString(chunk)
	return chunk
}

func (b *replyBuffer) String() string {
	return b.text.String()
}

// Generated is the text received during this response.
func (b *replyBuffer) Generated() string {
	return b.text.String()[b.prefixLen:]
}

func (b *replyBuffer) PendingSegments() []speech.Segment {
	return speech.ExtractSegments(b.text.String(), b.spokenUpTo)
}

func (b *replyBuffer) MarkSpoken(end int) {
	b.spokenUpTo = end
}

// TakeRemainder returns the unspoken tail and marks it spoken.
func (b *replyBuffer) TakeRemainder() string {
	text := b.text.String()
	remainder := speech.Remainder(text, b.spokenUpTo)
	b.spokenUpTo = len(text)
	return remainder
}
