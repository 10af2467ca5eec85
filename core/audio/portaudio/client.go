package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ttschat/core/audio"
)

const defaultFramesPerBuffer = 1024

// Player writes buffers to a blocking portaudio output stream as int16
// samples. Samples are clipped to [-1, 1] before conversion.
type Player struct {
	framesPerBuffer int

	mu       sync.Mutex
	stream   *portaudio.Stream
	encoding audio.EncodingInfo
	out      []int16
	closed   bool
}

func NewPlayer(framesPerBuffer int) (*Player, error) {
	if framesPerBuffer <= 0 {
		framesPerBuffer = defaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	player := &Player{framesPerBuffer: framesPerBuffer}
	if err := player.open(audio.GetDefaultEncodingInfo()); err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	return player, nil
}

// Play returns after the last blocking write, when the final frames sit in
// the stream's output buffer.
func (p *Player) Play(ctx context.Context, buffer audio.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("player closed")
	}
	if buffer.IsEmpty() {
		return nil
	}

	encoding := buffer.EncodingInfo()
	if encoding.SampleRate != p.encoding.SampleRate || encoding.Channels != p.encoding.Channels {
		p.closeStream()
		if err := p.open(encoding); err != nil {
			return err
		}
	}

	samples := buffer.Int16()
	chunk := len(p.out)
	for offset := 0; offset < len(samples); offset += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := copy(p.out, samples[offset:])
		clear(p.out[n:])
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	}

	return nil
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	p.closeStream()
	return portaudio.Terminate()
}

func (p *Player) open(encoding audio.EncodingInfo) error {
	out := make([]int16, p.framesPerBuffer*encoding.Channels)
	stream, err := portaudio.OpenDefaultStream(0, encoding.Channels, float64(encoding.SampleRate), p.framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	p.stream = stream
	p.encoding = encoding
	p.out = out
	return nil
}

func (p *Player) closeStream() {
	if p.stream == nil {
		return
	}
	_ = p.stream.Stop()
	_ = p.stream.Close()
	p.stream = nil
}
