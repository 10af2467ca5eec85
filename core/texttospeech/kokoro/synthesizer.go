// Package kokoro synthesizes speech with a local Kokoro-82M model. The model
// runs in a separate worker process driven over a JSON lines protocol; this
// package owns the model files, the voices and the worker's lifetime.
package kokoro

import (
	"context"
	"fmt"
	"iter"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultVoice    = "af_bella"
	defaultLangCode = "a"

	// PythonEnv and WorkerScriptEnv select the interpreter and script used
	// when no worker command is configured.
	PythonEnv       = "KOKORO_PYTHON"
	WorkerScriptEnv = "KOKORO_WORKER_SCRIPT"

	defaultWorkerScript = "scripts/kokoro_worker.py"
	warmupTimeout       = 60 * time.Second
)

var partSeparator = regexp.MustCompile(`\n+`)

type Synthesizer struct {
	assets       Assets
	worker       *worker
	voices       *VoiceLibrary
	langCode     string
	defaultVoice string
}

type options struct {
	modelDir     string
	command      []string
	env          []string
	langCode     string
	defaultVoice string
	warmup       bool
	download     bool
}

func newOptions(opts []Option) options {
	o := options{
		modelDir:     DefaultModelDir(),
		command:      defaultWorkerCommand(),
		langCode:     defaultLangCode,
		defaultVoice: DefaultVoice,
		download:     DownloadAllowed(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(*options)

func WithModelDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.modelDir = dir
		}
	}
}

// WithWorkerCommand sets the executable and arguments of the engine process.
func WithWorkerCommand(command ...string) Option {
	return func(o *options) {
		if len(command) > 0 {
			o.command = command
		}
	}
}

// WithWorkerEnv adds KEY=value pairs to the engine process environment.
func WithWorkerEnv(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

// WithLangCode sets the language used for voices whose name does not start
// with a known language prefix.
func WithLangCode(code string) Option {
	return func(o *options) {
		if code != "" {
			o.langCode = code
		}
	}
}

// WithDefaultVoice sets the voice used when Synthesize gets an empty one.
func WithDefaultVoice(voice string) Option {
	return func(o *options) {
		if voice != "" {
			o.defaultVoice = normalizeVoiceName(voice)
		}
	}
}

// WithWarmup synthesizes a short phrase during New so dependency problems of
// the engine surface before the first real request.
func WithWarmup(warmup bool) Option {
	return func(o *options) {
		o.warmup = warmup
	}
}

// WithDownload allows fetching a missing model snapshot or voice from
// Hugging Face. The default comes from KOKORO_ALLOW_DOWNLOAD.
func WithDownload(allow bool) Option {
	return func(o *options) {
		o.download = allow
	}
}

// New checks the model files and starts the engine process. Missing model
// files yield a *texttospeech.ConfigurationError unless downloads are
// allowed, in which case the snapshot is fetched first.
func New(opts ...Option) (*Synthesizer, error) {
	o := newOptions(opts)

	assets, err := LocateAssets(o.modelDir)
	if err != nil && o.download {
		logger.Info("kokoro model missing, downloading", "model_dir", o.modelDir, "repository", Repository)
		assets, err = download(context.Background(), o)
	}
	if err != nil {
		return nil, err
	}

	env := append([]string{ModelDirEnv + "=" + assets.Dir}, o.env...)
	worker, err := startWorker(o.command, env)
	if err != nil {
		return nil, err
	}

	s := &Synthesizer{
		assets:       assets,
		worker:       worker,
		voices:       newVoiceLibrary(assets, worker, o.download),
		langCode:     o.langCode,
		defaultVoice: o.defaultVoice,
	}

	if o.warmup {
		ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
		defer cancel()
		for _, err := range s.Synthesize(ctx, "warmup", "", 1) {
			if err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("kokoro worker failed to start: %w", err)
			}
		}
	}

	logger.Info("kokoro ready", "model_dir", assets.Dir, "default_voice", s.defaultVoice)
	return s, nil
}

// Synthesize yields one buffer per line block of text. Runs of newlines
// separate the blocks and blank blocks are skipped.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string, speed float64) iter.Seq2[audio.Buffer, error] {
	return func(yield func(audio.Buffer, error) bool) {
		voice = normalizeVoiceName(voice)
		if voice == "" {
			voice = s.defaultVoice
		}
		if speed <= 0 {
			speed = 1
		}

		ctx, span := tracer.Start(ctx, "kokoro synthesize", trace.WithAttributes(
			attribute.String("tts.voice", voice),
			attribute.Float64("tts.speed", speed),
			attribute.Int("tts.text_length", len(text)),
		))
		defer span.End()

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(audio.Buffer{}, err)
		}

		inline := !s.voices.IsStored(voice)
		resolved := Voice{Name: voice}
		if inline {
			var err error
			if resolved, err = s.voices.Load(ctx, voice); err != nil {
				fail(err)
				return
			}
		}

		for _, part := range splitParts(text) {
			if ctx.Err() != nil {
				return
			}

			buffer, err := s.worker.synthesize(ctx, part, resolved, inline, s.assets.VoicePath(voice), s.langCodeFor(voice), speed)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fail(err)
				return
			}
			if !yield(buffer, nil) {
				return
			}
		}
	}
}

// Voices gives access to loading, blending and saving voices.
func (s *Synthesizer) Voices() *VoiceLibrary {
	return s.voices
}

func (s *Synthesizer) Assets() Assets {
	return s.assets
}

func (s *Synthesizer) Close() error {
	return s.worker.Close()
}

// langCodeFor derives the language from the voice prefix (af_heart is
// American English, bf_emma British English, ...).
func (s *Synthesizer) langCodeFor(voice string) string {
	if len(voice) > 2 && voice[2] == '_' && strings.ContainsRune("abefhijpz", rune(voice[0])) {
		return voice[:1]
	}
	return s.langCode
}

func splitParts(text string) []string {
	var parts []string
	for _, part := range partSeparator.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func defaultWorkerCommand() []string {
	python := strings.TrimSpace(os.Getenv(PythonEnv))
	if python == "" {
		python = "python3"
	}
	script := strings.TrimSpace(os.Getenv(WorkerScriptEnv))
	if script == "" {
		script = defaultWorkerScript
	}
	return []string{python, "-u", script}
}

var _ texttospeech.Synthesizer = (*Synthesizer)(nil)
