package kokoro

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/koscakluka/ttschat/core/texttospeech"
)

const (
	// ModelDirEnv overrides where the model files are looked up.
	ModelDirEnv = "KOKORO_MODEL_DIR"

	Repository = "hexgrad/Kokoro-82M"

	configFile  = "config.json"
	weightsFile = "kokoro-v1_0.pth"
	voicesDir   = "voices"
	voiceExt    = ".pt"
)

// Assets are the files of a local Kokoro model snapshot.
type Assets struct {
	Dir     string
	Config  string
	Weights string
	Voices  string
}

// DefaultModelDir returns the directory named by KOKORO_MODEL_DIR, or the
// per-user cache location when it is unset.
func DefaultModelDir() string {
	if dir := strings.TrimSpace(os.Getenv(ModelDirEnv)); dir != "" {
		return expandHome(dir)
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ttschat", "models", "kokoro-82m")
	}
	return filepath.Join("models", "kokoro-82m")
}

// LocateAssets checks that dir holds a usable model snapshot: the config,
// the weights and a voices directory with at least one voice.
func LocateAssets(dir string) (Assets, error) {
	dir = expandHome(dir)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	assets := Assets{
		Dir:     dir,
		Config:  filepath.Join(dir, configFile),
		Weights: filepath.Join(dir, weightsFile),
		Voices:  filepath.Join(dir, voicesDir),
	}

	for _, path := range []string{assets.Config, assets.Weights} {
		if _, err := os.Stat(path); err != nil {
			return Assets{}, missingAsset(path, err)
		}
	}

	info, err := os.Stat(assets.Voices)
	if err != nil {
		return Assets{}, missingAsset(assets.Voices, err)
	}
	if !info.IsDir() {
		return Assets{}, missingAsset(assets.Voices, fmt.Errorf("not a directory"))
	}

	voices, err := listVoiceFiles(assets.Voices)
	if err != nil {
		return Assets{}, missingAsset(assets.Voices, err)
	}
	if len(voices) == 0 {
		return Assets{}, missingAsset(filepath.Join(assets.Voices, "*"+voiceExt), fs.ErrNotExist)
	}

	return assets, nil
}

// VoicePath is where the voice with the given identifier is stored.
func (a Assets) VoicePath(name string) string {
	return filepath.Join(a.Voices, strings.TrimSuffix(name, voiceExt)+voiceExt)
}

// VoiceNames lists the stored voices, sorted.
func (a Assets) VoiceNames() ([]string, error) {
	names, err := listVoiceFiles(a.Voices)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func missingAsset(path string, cause error) error {
	if errors.Is(cause, fs.ErrNotExist) {
		cause = nil
	}
	return &texttospeech.ConfigurationError{
		Path: path,
		Hint: fmt.Sprintf(
			"download the %s snapshot (config.json, %s and voices/*%s) into the model directory, point %s at it or set %s=1",
			Repository, weightsFile, voiceExt, ModelDirEnv, AllowDownloadEnv,
		),
		Cause: cause,
	}
}

func listVoiceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var voices []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), voiceExt) {
			continue
		}
		voices = append(voices, strings.TrimSuffix(entry.Name(), voiceExt))
	}
	return voices, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
