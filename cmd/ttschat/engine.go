package main

import (
	"errors"
	"fmt"
	"sync"

	orchestration "github.com/koscakluka/ttschat/core"
	"github.com/koscakluka/ttschat/core/audio/external"
	"github.com/koscakluka/ttschat/core/audio/playback"
	"github.com/koscakluka/ttschat/core/speech"
	"github.com/koscakluka/ttschat/core/texttospeech"
	"github.com/koscakluka/ttschat/core/texttospeech/deepgram"
	"github.com/koscakluka/ttschat/core/texttospeech/kokoro"
	"github.com/koscakluka/ttschat/internal/config"
)

// speechEngine holds the synthesizer of a session and opens the audio
// device the first time something is spoken.
type speechEngine struct {
	synthesizer texttospeech.Synthesizer
	kokoro      *kokoro.Synthesizer
	voice       string

	playerOptions []playback.Option

	mu     sync.Mutex
	player playback.Player
}

func newSpeechEngine(cfg config.Config) (*speechEngine, error) {
	engine := &speechEngine{
		voice:         cfg.Voice,
		playerOptions: []playback.Option{playback.WithBackends(cfg.Backends...)},
	}
	if len(cfg.PlayerCommand) > 0 {
		engine.playerOptions = append(engine.playerOptions,
			playback.WithExternalOptions(external.WithCommand(cfg.PlayerCommand...)))
	}

	switch cfg.Engine {
	case config.EngineDeepgram:
		opts := []deepgram.Option{deepgram.WithAPIKey(cfg.DeepgramAPIKey)}
		if cfg.Voice != kokoro.DefaultVoice {
			opts = append(opts, deepgram.WithDefaultVoice(cfg.Voice))
		}
		synthesizer, err := deepgram.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to set up deepgram: %w", err)
		}
		engine.synthesizer = synthesizer
		engine.voice = synthesizer.Voice()

	default:
		synthesizer, err := kokoro.New(
			kokoro.WithModelDir(cfg.KokoroModelDir),
			kokoro.WithLangCode(cfg.KokoroLangCode),
			kokoro.WithDefaultVoice(cfg.Voice),
			kokoro.WithWarmup(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set up kokoro: %w", err)
		}
		engine.synthesizer = synthesizer
		engine.kokoro = synthesizer
	}

	return engine, nil
}

func (e *speechEngine) output() (playback.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.player != nil {
		return e.player, nil
	}
	player, _, err := playback.NewAutoPlayer(e.playerOptions...)
	if err != nil {
		return nil, err
	}
	e.player = player
	return player, nil
}

// newPipeline is the speech pipeline factory of the orchestrator. Every
// pipeline shares the one audio device.
func (e *speechEngine) newPipeline() (orchestration.SpeechPipeline, error) {
	pipeline, err := e.startPipeline()
	if err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (e *speechEngine) startPipeline() (*speech.Pipeline, error) {
	player, err := e.output()
	if err != nil {
		return nil, err
	}

	pipeline := speech.NewPipeline(e.synthesizer, player)
	if err := pipeline.Start(); err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (e *speechEngine) Close() error {
	e.mu.Lock()
	player := e.player
	e.player = nil
	e.mu.Unlock()

	var errs []error
	if player != nil {
		errs = append(errs, player.Close())
	}
	if e.kokoro != nil {
		errs = append(errs, e.kokoro.Close())
	}
	return errors.Join(errs...)
}
