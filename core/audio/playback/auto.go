// Package playback picks the best audio backend available on the machine.
package playback

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/audio/external"
	"github.com/koscakluka/ttschat/core/audio/miniaudio"
	"github.com/koscakluka/ttschat/core/audio/portaudio"
)

type Backend string

const (
	BackendMiniaudio Backend = "miniaudio"
	BackendPortaudio Backend = "portaudio"
	BackendExternal  Backend = "external"
)

// DefaultBackends is the order of preference: direct device output first,
// blocking stream writes next, an external command as the last resort.
var DefaultBackends = []Backend{BackendMiniaudio, BackendPortaudio, BackendExternal}

// Player is an audio.Player that owns device resources.
type Player interface {
	audio.Player
	Close() error
}

type options struct {
	backends        []Backend
	framesPerBuffer int
	externalOptions []external.PlayerOption
	openers         map[Backend]func(options) (Player, error)
}

type Option func(*options)

func WithBackends(backends ...Backend) Option {
	return func(o *options) {
		o.backends = backends
	}
}

func WithFramesPerBuffer(frames int) Option {
	return func(o *options) {
		o.framesPerBuffer = frames
	}
}

func WithExternalOptions(opts ...external.PlayerOption) Option {
	return func(o *options) {
		o.externalOptions = append(o.externalOptions, opts...)
	}
}

// NewAutoPlayer returns the first backend that initialises, together with
// its name. It fails only when none of the requested backends can be used.
func NewAutoPlayer(opts ...Option) (Player, Backend, error) {
	o := options{
		backends: DefaultBackends,
		openers: map[Backend]func(options) (Player, error){
			BackendMiniaudio: openMiniaudio,
			BackendPortaudio: openPortaudio,
			BackendExternal:  openExternal,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var errs []error
	for _, backend := range o.backends {
		open, ok := o.openers[backend]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown audio backend %q", backend))
			continue
		}

		player, err := open(o)
		if err != nil {
			logger.Warn("audio backend unavailable", "backend", string(backend), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend, err))
			continue
		}

		logger.Info("audio backend selected", "backend", string(backend))
		return player, backend, nil
	}

	return nil, "", fmt.Errorf("no audio backend available: %w", errors.Join(errs...))
}

// ParseBackend accepts a backend name as used in configuration.
func ParseBackend(name string) (Backend, error) {
	switch backend := Backend(name); backend {
	case BackendMiniaudio, BackendPortaudio, BackendExternal:
		return backend, nil
	}
	return "", fmt.Errorf("unknown audio backend %q", name)
}

func openMiniaudio(options) (Player, error) {
	return miniaudio.NewPlayer()
}

func openPortaudio(o options) (Player, error) {
	return portaudio.NewPlayer(o.framesPerBuffer)
}

func openExternal(o options) (Player, error) {
	return external.NewPlayer(o.externalOptions...)
}
