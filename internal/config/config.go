// Package config turns command line flags, TTSCHAT_ environment variables
// and an optional config file into the settings of a chat session.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/koscakluka/ttschat/core/audio/playback"
	"github.com/spf13/viper"
)

const EnvPrefix = "TTSCHAT"

// Keys shared by the flags, the environment and the config file.
const (
	KeyModel          = "model"
	KeyBaseURL        = "base-url"
	KeySystem         = "system"
	KeyUserRole       = "user-role"
	KeyAssistantRole  = "assistant-role"
	KeyPreset         = "preset"
	KeyVoice          = "voice"
	KeySpeed          = "speed"
	KeyTemperature    = "temperature"
	KeyMaxTokens      = "max-tokens"
	KeySeed           = "seed"
	KeyTimeout        = "timeout"
	KeyTextOnly       = "text-only"
	KeyEngine         = "engine"
	KeyBackend        = "backend"
	KeyPlayerCommand  = "player-command"
	KeyKokoroModelDir = "kokoro-model-dir"
	KeyKokoroLangCode = "kokoro-lang-code"
	KeyDeepgramAPIKey = "deepgram-api-key"
)

type Engine string

const (
	EngineKokoro   Engine = "kokoro"
	EngineDeepgram Engine = "deepgram"
)

// BackendAuto tries every playback backend in order of preference.
const BackendAuto = "auto"

type Config struct {
	Model   string
	BaseURL string
	Timeout time.Duration

	SystemPrompt  string
	UserRole      string
	AssistantRole string
	PresetPath    string

	Voice       string
	Speed       float64
	Temperature float64
	MaxTokens   int
	// Seed is nil when generation should not be seeded.
	Seed *int

	TextOnly      bool
	Engine        Engine
	Backends      []playback.Backend
	PlayerCommand []string

	KokoroModelDir string
	KokoroLangCode string
	DeepgramAPIKey string
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyModel, "lmstudio")
	v.SetDefault(KeyBaseURL, "http://127.0.0.1:1234")
	v.SetDefault(KeyVoice, "af_bella")
	v.SetDefault(KeySpeed, 1.0)
	v.SetDefault(KeyTemperature, 0.7)
	v.SetDefault(KeyMaxTokens, 0)
	v.SetDefault(KeySeed, -1)
	v.SetDefault(KeyTimeout, 120*time.Second)
	v.SetDefault(KeyEngine, string(EngineKokoro))
	v.SetDefault(KeyBackend, BackendAuto)
	v.SetDefault(KeyKokoroLangCode, "a")
}

// BindEnv makes every key readable from TTSCHAT_<KEY> with dashes turned
// into underscores, e.g. TTSCHAT_BASE_URL.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Model:          strings.TrimSpace(v.GetString(KeyModel)),
		BaseURL:        strings.TrimSpace(v.GetString(KeyBaseURL)),
		Timeout:        v.GetDuration(KeyTimeout),
		SystemPrompt:   v.GetString(KeySystem),
		UserRole:       strings.TrimSpace(v.GetString(KeyUserRole)),
		AssistantRole:  strings.TrimSpace(v.GetString(KeyAssistantRole)),
		PresetPath:     strings.TrimSpace(v.GetString(KeyPreset)),
		Voice:          strings.TrimSpace(v.GetString(KeyVoice)),
		Speed:          v.GetFloat64(KeySpeed),
		Temperature:    v.GetFloat64(KeyTemperature),
		MaxTokens:      v.GetInt(KeyMaxTokens),
		TextOnly:       v.GetBool(KeyTextOnly),
		Engine:         Engine(strings.ToLower(strings.TrimSpace(v.GetString(KeyEngine)))),
		PlayerCommand:  v.GetStringSlice(KeyPlayerCommand),
		KokoroModelDir: strings.TrimSpace(v.GetString(KeyKokoroModelDir)),
		KokoroLangCode: strings.TrimSpace(v.GetString(KeyKokoroLangCode)),
		DeepgramAPIKey: strings.TrimSpace(v.GetString(KeyDeepgramAPIKey)),
	}
	if seed := v.GetInt(KeySeed); seed >= 0 {
		cfg.Seed = &seed
	}

	backends, err := parseBackends(v.GetString(KeyBackend))
	if err != nil {
		return Config{}, err
	}
	cfg.Backends = backends

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base url must not be empty"))
	}
	if c.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be positive, got %v", c.Speed))
	}
	if c.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must not be negative, got %v", c.Temperature))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max tokens must not be negative, got %d", c.MaxTokens))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	switch c.Engine {
	case EngineKokoro, EngineDeepgram:
	default:
		errs = append(errs, fmt.Errorf("unknown speech engine %q", c.Engine))
	}
	return errors.Join(errs...)
}

func parseBackends(name string) ([]playback.Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == BackendAuto {
		return playback.DefaultBackends, nil
	}

	backend, err := playback.ParseBackend(name)
	if err != nil {
		return nil, err
	}
	return []playback.Backend{backend}, nil
}
