package kokoro

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/koscakluka/ttschat/core/texttospeech"
)

type memoryVoiceStore struct {
	mu        sync.Mutex
	voices    map[string]Voice
	loads     int
	saved     map[string]Voice
	downloads [][]string
}

func (s *memoryVoiceStore) loadVoice(ctx context.Context, path string) (Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loads++
	voice, ok := s.voices[filepath.Base(path)]
	if !ok {
		return Voice{}, errors.New("unreadable voice")
	}
	return voice.clone(""), nil
}

func (s *memoryVoiceStore) saveVoice(ctx context.Context, path string, voice Voice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved == nil {
		s.saved = map[string]Voice{}
	}
	s.saved[path] = voice
	return nil
}

// download writes a placeholder file for every requested voice it knows.
func (s *memoryVoiceStore) download(ctx context.Context, dir string, patterns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloads = append(s.downloads, patterns)
	for _, pattern := range patterns {
		if _, ok := s.voices[filepath.Base(pattern)]; !ok {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(pattern)), []byte("pt"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newTestLibrary(t *testing.T) (*VoiceLibrary, *memoryVoiceStore) {
	t.Helper()

	assets, err := LocateAssets(writeModelDir(t, "af_heart", "am_adam", "bf_odd"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	store := &memoryVoiceStore{voices: map[string]Voice{
		"af_heart.pt": {Shape: []int64{2, 2}, Data: []float32{0, 0, 4, 4}},
		"am_adam.pt":  {Shape: []int64{2, 2}, Data: []float32{4, 4, 0, 0}},
		"bf_odd.pt":   {Shape: []int64{3}, Data: []float32{1, 1, 1}},
	}}
	return newVoiceLibrary(assets, store, false), store
}

func TestVoiceLibraryLoadCaches(t *testing.T) {
	library, store := newTestLibrary(t)

	for range 3 {
		voice, err := library.Load(context.Background(), "af_heart")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if voice.Name != "af_heart" {
			t.Fatalf("expected the voice to be named, got %q", voice.Name)
		}
	}
	if store.loads != 1 {
		t.Fatalf("expected a single load, got %d", store.loads)
	}
}

func TestVoiceLibraryLoadUnknownVoice(t *testing.T) {
	library, _ := newTestLibrary(t)

	_, err := library.Load(context.Background(), "zz_missing")
	if !errors.Is(err, texttospeech.ErrUnknownVoice) {
		t.Fatalf("expected ErrUnknownVoice, got %v", err)
	}
	var configErr *texttospeech.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestVoiceLibraryDownloadsMissingVoice(t *testing.T) {
	library, store := newTestLibrary(t)
	library.allowDownload = true
	store.voices["af_sky.pt"] = Voice{Shape: []int64{2, 2}, Data: []float32{1, 2, 3, 4}}

	voice, err := library.Load(context.Background(), "af_sky")
	if err != nil {
		t.Fatalf("expected the voice to be fetched, got %v", err)
	}
	if voice.Name != "af_sky" || len(voice.Data) != 4 {
		t.Fatalf("unexpected voice %+v", voice)
	}
	if len(store.downloads) != 1 || !slices.Equal(store.downloads[0], []string{"voices/af_sky.pt"}) {
		t.Fatalf("expected one download of voices/af_sky.pt, got %v", store.downloads)
	}

	if _, err := library.Load(context.Background(), "zz_missing"); !errors.Is(err, texttospeech.ErrUnknownVoice) {
		t.Fatalf("expected ErrUnknownVoice when the download has no such voice, got %v", err)
	}
}

func TestVoiceLibraryBlend(t *testing.T) {
	library, _ := newTestLibrary(t)

	blended, err := library.Blend(context.Background(), "mix", "af_heart", "am_adam", 0.25)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []float32{1, 1, 3, 3}
	if !slices.Equal(blended.Data, want) {
		t.Fatalf("expected %v, got %v", want, blended.Data)
	}
	if library.IsStored("mix") {
		t.Fatalf("expected the blend to be unsaved")
	}

	names, err := library.List()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !slices.Equal(names, []string{"af_heart", "am_adam", "bf_odd", "mix"}) {
		t.Fatalf("unexpected voice list %v", names)
	}

	original, _ := library.Load(context.Background(), "af_heart")
	if !slices.Equal(original.Data, []float32{0, 0, 4, 4}) {
		t.Fatalf("expected blending to leave the source voice intact, got %v", original.Data)
	}
}

func TestVoiceLibraryBlendRejectsBadInput(t *testing.T) {
	library, _ := newTestLibrary(t)

	tests := []struct {
		name          string
		blend         string
		first, second string
		ratio         float64
	}{
		{name: "ratio above one", blend: "mix", first: "af_heart", second: "am_adam", ratio: 1.5},
		{name: "negative ratio", blend: "mix", first: "af_heart", second: "am_adam", ratio: -0.1},
		{name: "shape mismatch", blend: "mix", first: "af_heart", second: "bf_odd", ratio: 0.5},
		{name: "missing name", blend: " ", first: "af_heart", second: "am_adam", ratio: 0.5},
		{name: "unknown voice", blend: "mix", first: "af_heart", second: "zz_missing", ratio: 0.5},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := library.Blend(context.Background(), test.blend, test.first, test.second, test.ratio); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestVoiceLibrarySave(t *testing.T) {
	library, store := newTestLibrary(t)

	if err := library.Save(context.Background(), "mix"); !errors.Is(err, texttospeech.ErrUnknownVoice) {
		t.Fatalf("expected ErrUnknownVoice for an unknown voice, got %v", err)
	}

	if _, err := library.Blend(context.Background(), "mix", "af_heart", "am_adam", 0.5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := library.Save(context.Background(), "mix.pt"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	path := library.assets.VoicePath("mix")
	if _, ok := store.saved[path]; !ok {
		t.Fatalf("expected the voice to be saved at %s, got %v", path, store.saved)
	}
}
