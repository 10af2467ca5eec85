package kokoro

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/koscakluka/ttschat/core/texttospeech"
)

// Voice is a style tensor the engine conditions synthesis on. Data is laid
// out row-major according to Shape.
type Voice struct {
	Name  string
	Shape []int64
	Data  []float32
}

func (v Voice) clone(name string) Voice {
	return Voice{Name: name, Shape: slices.Clone(v.Shape), Data: slices.Clone(v.Data)}
}

type voiceStore interface {
	loadVoice(ctx context.Context, path string) (Voice, error)
	saveVoice(ctx context.Context, path string, voice Voice) error
	download(ctx context.Context, dir string, patterns []string) error
}

// VoiceLibrary loads voices on first use and keeps them in memory. Blended
// voices live only in memory until they are saved.
type VoiceLibrary struct {
	assets        Assets
	store         voiceStore
	allowDownload bool

	mu      sync.Mutex
	cache   map[string]Voice
	unsaved map[string]bool
}

func newVoiceLibrary(assets Assets, store voiceStore, allowDownload bool) *VoiceLibrary {
	return &VoiceLibrary{
		assets:        assets,
		store:         store,
		allowDownload: allowDownload,
		cache:         map[string]Voice{},
		unsaved:       map[string]bool{},
	}
}

// List returns the identifiers of the stored voices and the unsaved blends,
// sorted.
func (l *VoiceLibrary) List() ([]string, error) {
	stored, err := listVoiceFiles(l.assets.Voices)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}

	l.mu.Lock()
	for name := range l.unsaved {
		stored = append(stored, name)
	}
	l.mu.Unlock()

	slices.Sort(stored)
	return slices.Compact(stored), nil
}

// Load returns the voice with the given identifier, reading it from the
// voices directory the first time.
func (l *VoiceLibrary) Load(ctx context.Context, name string) (Voice, error) {
	name = normalizeVoiceName(name)

	l.mu.Lock()
	voice, ok := l.cache[name]
	l.mu.Unlock()
	if ok {
		return voice, nil
	}

	path := l.assets.VoicePath(name)
	if _, err := os.Stat(path); err != nil && l.allowDownload {
		if err := l.store.download(ctx, l.assets.Dir, []string{voicesDir + "/" + name + voiceExt}); err != nil {
			logger.Warn("voice download failed", "voice", name, "error", err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		return Voice{}, &texttospeech.ConfigurationError{
			Path:  path,
			Hint:  fmt.Sprintf("voice %q is not installed, download it from %s into the voices directory", name, Repository),
			Cause: texttospeech.ErrUnknownVoice,
		}
	}

	voice, err := l.store.loadVoice(ctx, path)
	if err != nil {
		return Voice{}, fmt.Errorf("failed to load voice %q: %w", name, err)
	}
	voice.Name = name

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[name]; ok {
		return cached, nil
	}
	l.cache[name] = voice
	return voice, nil
}

// IsStored reports whether the voice exists as a file the engine can read
// by itself.
func (l *VoiceLibrary) IsStored(name string) bool {
	name = normalizeVoiceName(name)

	l.mu.Lock()
	unsaved := l.unsaved[name]
	l.mu.Unlock()
	if unsaved {
		return false
	}

	_, err := os.Stat(l.assets.VoicePath(name))
	return err == nil
}

// Blend creates the voice name as (1-ratio)*first + ratio*second and caches
// it. Both voices must have the same shape.
func (l *VoiceLibrary) Blend(ctx context.Context, name, first, second string, ratio float64) (Voice, error) {
	name = normalizeVoiceName(name)
	if name == "" {
		return Voice{}, fmt.Errorf("blended voice needs a name")
	}
	if ratio < 0 || ratio > 1 {
		return Voice{}, fmt.Errorf("blend ratio %v outside [0, 1]", ratio)
	}

	a, err := l.Load(ctx, first)
	if err != nil {
		return Voice{}, err
	}
	b, err := l.Load(ctx, second)
	if err != nil {
		return Voice{}, err
	}
	if !slices.Equal(a.Shape, b.Shape) || len(a.Data) != len(b.Data) {
		return Voice{}, fmt.Errorf("cannot blend %q %v with %q %v: shapes differ", a.Name, a.Shape, b.Name, b.Shape)
	}

	blended := a.clone(name)
	weight := float32(ratio)
	for i := range blended.Data {
		blended.Data[i] = (1-weight)*a.Data[i] + weight*b.Data[i]
	}

	l.mu.Lock()
	l.cache[name] = blended
	l.unsaved[name] = true
	l.mu.Unlock()

	logger.Info("voice blended", "voice", name, "first", a.Name, "second", b.Name, "ratio", ratio)
	return blended, nil
}

// Save writes the cached voice to the voices directory under its name.
func (l *VoiceLibrary) Save(ctx context.Context, name string) error {
	name = normalizeVoiceName(name)

	l.mu.Lock()
	voice, ok := l.cache[name]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q is not loaded", texttospeech.ErrUnknownVoice, name)
	}

	if err := l.store.saveVoice(ctx, l.assets.VoicePath(name), voice); err != nil {
		return fmt.Errorf("failed to save voice %q: %w", name, err)
	}

	l.mu.Lock()
	delete(l.unsaved, name)
	l.mu.Unlock()
	return nil
}

func normalizeVoiceName(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), voiceExt)
}
