package texttospeech

import (
	"context"
	"iter"

	"github.com/koscakluka/ttschat/core/audio"
)

// Synthesizer turns text into audio. The returned sequence yields one buffer
// per synthesized part of the text, in text order, and stops after the first
// error.
//
// Implementations must not mutate text and must stop promptly once ctx is
// done.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) iter.Seq2[audio.Buffer, error]
}

// Failed returns a sequence that yields only err. It is a convenience for
// implementations that fail before any audio is produced.
func Failed(err error) iter.Seq2[audio.Buffer, error] {
	return func(yield func(audio.Buffer, error) bool) {
		yield(audio.Buffer{}, err)
	}
}
