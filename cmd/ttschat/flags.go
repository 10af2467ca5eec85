package main

import (
	"time"

	"github.com/koscakluka/ttschat/internal/config"
	"github.com/spf13/cobra"
)

// registerFlags adds the session flags to every command and binds them to
// the configuration keys.
func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.String("config", "", "YAML config file")
	flags.StringP(config.KeyModel, "m", "lmstudio", "model identifier exposed by the completions server")
	flags.String(config.KeyBaseURL, "http://127.0.0.1:1234", "base URL of the completions server")
	flags.String(config.KeySystem, "", "system prompt, overrides the preset")
	flags.String(config.KeyUserRole, "", "display name and prompt alias of the user, overrides the preset")
	flags.String(config.KeyAssistantRole, "", "display name and prompt alias of the assistant, overrides the preset")
	flags.String(config.KeyPreset, "", "preset file (default: the user's default preset)")
	flags.StringP(config.KeyVoice, "v", "af_bella", "voice used for speech")
	flags.Float64P(config.KeySpeed, "s", 1.0, "speech speed")
	flags.Float64(config.KeyTemperature, 0.7, "sampling temperature")
	flags.Int(config.KeyMaxTokens, 0, "cap on generated tokens (0 = unlimited)")
	flags.Int(config.KeySeed, -1, "sampling seed (negative = unseeded)")
	flags.Duration(config.KeyTimeout, 120*time.Second, "timeout for the response headers and between lines")
	flags.Bool(config.KeyTextOnly, false, "disable speech and only show replies")
	flags.String(config.KeyEngine, "kokoro", "speech engine: kokoro or deepgram")
	flags.String(config.KeyBackend, config.BackendAuto, "audio backend: auto, miniaudio, portaudio or external")
	flags.StringSlice(config.KeyPlayerCommand, nil, "command of the external player, {path} is the WAV file")
	flags.String(config.KeyKokoroModelDir, "", "Kokoro model directory (default $KOKORO_MODEL_DIR or the user cache)")
	flags.String(config.KeyKokoroLangCode, "a", "Kokoro language for voices without a language prefix")
	flags.String(config.KeyDeepgramAPIKey, "", "Deepgram API key (default $DEEPGRAM_API_KEY)")

	for _, key := range []string{
		config.KeyModel, config.KeyBaseURL, config.KeySystem, config.KeyUserRole,
		config.KeyAssistantRole, config.KeyPreset, config.KeyVoice, config.KeySpeed,
		config.KeyTemperature, config.KeyMaxTokens, config.KeySeed, config.KeyTimeout, config.KeyTextOnly,
		config.KeyEngine, config.KeyBackend, config.KeyPlayerCommand,
		config.KeyKokoroModelDir, config.KeyKokoroLangCode, config.KeyDeepgramAPIKey,
	} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
}
