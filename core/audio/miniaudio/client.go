package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ttschat/core/audio"
)

// Player plays float32 buffers through the default miniaudio output device.
// The device is opened for the encoding of the first buffer and reopened
// whenever a buffer with a different sample rate or channel count arrives.
type Player struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playback     playbackClient

	playMu sync.Mutex
	closed bool
}

func NewPlayer() (*Player, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	player := &Player{audioContext: audioCtx}
	if err := player.playback.Init(audioCtx, audio.GetDefaultEncodingInfo()); err != nil {
		player.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return player, nil
}

// Play queues the clipped samples on the device and blocks until the
// callback has copied the last of them into a device period. A cancelled
// ctx drops whatever was not played yet.
func (p *Player) Play(ctx context.Context, buffer audio.Buffer) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	if p.closed {
		return fmt.Errorf("player closed")
	}
	if buffer.IsEmpty() {
		return nil
	}

	if encoding := buffer.EncodingInfo(); encoding != p.playback.Encoding() {
		if err := p.playback.Reinit(encoding); err != nil {
			return fmt.Errorf("failed to reopen playback device: %w", err)
		}
	}

	if err := p.playback.Start(); err != nil {
		return err
	}

	done := make(chan struct{})
	if err := p.playback.SendAudio(buffer.Clip().Float32LE()); err != nil {
		return err
	}
	p.playback.Mark(func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.playback.ClearBuffer()
		return ctx.Err()
	}
}

func (p *Player) Close() error {
	p.playMu.Lock()
	defer p.playMu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	_ = p.playback.Uninit()
	_ = p.audioContext.Uninit()
	p.audioContext.Free()
	return nil
}
