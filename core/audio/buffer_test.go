package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func TestBufferClip(t *testing.T) {
	buffer := NewBuffer([]float32{-1.5, -0.5, 0, 0.5, 2})

	clipped := buffer.Clip()
	want := []float32{-1, -0.5, 0, 0.5, 1}
	for i := range want {
		if clipped.Samples[i] != want[i] {
			t.Fatalf("expected sample %d to be %v, got %v", i, want[i], clipped.Samples[i])
		}
	}
	if buffer.Samples[0] != -1.5 {
		t.Fatalf("expected clip to leave the source untouched, got %v", buffer.Samples[0])
	}
}

func TestBufferClipSilencesNaN(t *testing.T) {
	nan := float32(math.NaN())
	buffer := NewBuffer([]float32{nan, 0.5})

	if got := buffer.Clip().Samples[0]; got != 0 {
		t.Fatalf("expected NaN to clip to 0, got %v", got)
	}
	if got := buffer.Int16(); got[0] != 0 || got[1] == 0 {
		t.Fatalf("expected NaN to convert to silence, got %v", got)
	}
	if pcm := buffer.PCM16LE(); pcm[0] != 0 || pcm[1] != 0 {
		t.Fatalf("expected NaN to encode as zero, got %v", pcm[:2])
	}
}

func TestBufferInt16(t *testing.T) {
	got := NewBuffer([]float32{-3, -1, 0, 0.5, 1, 3}).Int16()
	want := []int16{-math.MaxInt16, -math.MaxInt16, 0, 16384, math.MaxInt16, math.MaxInt16}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sample %d to be %d, got %d", i, want[i], got[i])
		}
	}
}

func TestBufferPCM16LERoundTrip(t *testing.T) {
	buffer := NewBuffer([]float32{-1, 0, 1})

	pcm := buffer.PCM16LE()
	if len(pcm) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(pcm))
	}

	decoded := FromPCM16LE(pcm, 1, DefaultSampleRate)
	for i, sample := range buffer.Samples {
		if decoded.Samples[i] != sample {
			t.Fatalf("expected sample %d to be %v, got %v", i, sample, decoded.Samples[i])
		}
	}
}

func TestBufferDuration(t *testing.T) {
	buffer := Buffer{Samples: make([]float32, 48000), Channels: 2, SampleRate: 24000}

	if frames := buffer.Frames(); frames != 24000 {
		t.Fatalf("expected 24000 frames, got %d", frames)
	}
	if duration := buffer.Duration(); duration != time.Second {
		t.Fatalf("expected 1s, got %v", duration)
	}
}

func TestBufferDefaultsForZeroFields(t *testing.T) {
	buffer := Buffer{Samples: make([]float32, DefaultSampleRate/2)}

	if duration := buffer.Duration(); duration != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", duration)
	}
	if info := buffer.EncodingInfo(); info.Channels != 1 || info.SampleRate != DefaultSampleRate {
		t.Fatalf("expected mono default rate, got %+v", info)
	}
}

func TestWriteWAV(t *testing.T) {
	buffer := Buffer{Samples: []float32{0, 0.5, -0.5, 1}, Channels: 2, SampleRate: 24000}

	var out bytes.Buffer
	if err := WriteWAV(&out, buffer); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	wav := out.Bytes()
	if len(wav) != 44+8 {
		t.Fatalf("expected 52 bytes, got %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("expected RIFF/WAVE/data markers, got %q", wav[:40])
	}
	if channels := binary.LittleEndian.Uint16(wav[22:]); channels != 2 {
		t.Fatalf("expected 2 channels, got %d", channels)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:]); rate != 24000 {
		t.Fatalf("expected 24000 Hz, got %d", rate)
	}
	if byteRate := binary.LittleEndian.Uint32(wav[28:]); byteRate != 96000 {
		t.Fatalf("expected byte rate 96000, got %d", byteRate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:]); size != 8 {
		t.Fatalf("expected data size 8, got %d", size)
	}
	if !bytes.Equal(wav[44:], buffer.PCM16LE()) {
		t.Fatalf("expected payload to match PCM16LE samples")
	}
}
