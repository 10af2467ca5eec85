package orchestration

import (
	"github.com/koscakluka/ttschat/core/llms"
	"github.com/koscakluka/ttschat/core/presets"
)

type OrchestratorOption func(*Orchestrator)

// Settings are the generation and voice parameters of every response.
type Settings struct {
	Model       string
	Voice       string
	Speed       float64
	Temperature float64
	// MaxTokens of 0 leaves the limit to the server.
	MaxTokens int
	Seed      *int
}

func DefaultSettings() Settings {
	return Settings{
		Model:       "lmstudio",
		Voice:       "af_bella",
		Speed:       1,
		Temperature: 0.7,
	}
}

func (s Settings) promptOptions(stops []string) []llms.StreamingPromptOption {
	opts := []llms.StreamingPromptOption{
		llms.WithModel(s.Model),
		llms.WithTemperature(s.Temperature),
		llms.WithMaxTokens(s.MaxTokens),
		llms.WithStopSequences(stops...),
	}
	if s.Seed != nil {
		opts = append(opts, llms.WithSeed(*s.Seed))
	}
	return opts
}

func WithCompletionClient(client llms.LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm = client
	}
}

func WithPresenter(presenter Presenter) OrchestratorOption {
	return func(o *Orchestrator) {
		if presenter != nil {
			o.presenter = presenter
		}
	}
}

// WithSpeechPipelineFactory sets how the speech pipeline is built. It is
// called the first time a reply needs audio and again after a cancelled
// reply dropped the previous pipeline.
func WithSpeechPipelineFactory(factory SpeechPipelineFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speaker.factory = factory
	}
}

func WithSettings(settings Settings) OrchestratorOption {
	return func(o *Orchestrator) {
		o.settings = settings
	}
}

func WithPreset(preset presets.Preset) OrchestratorOption {
	return func(o *Orchestrator) {
		o.preset = preset.Clone()
	}
}

// WithTextOnly disables speech for the whole session.
func WithTextOnly(textOnly bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textOnly = textOnly
	}
}
