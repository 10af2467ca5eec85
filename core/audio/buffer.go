package audio

import (
	"context"
	"encoding/binary"
	"math"
	"time"
)

// Buffer is a block of interleaved float samples in the nominal range
// [-1, 1]. Samples outside that range are valid and get clipped by the
// backends that need integer output.
type Buffer struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// NewBuffer wraps mono samples at the default sample rate.
func NewBuffer(samples []float32) Buffer {
	return Buffer{Samples: samples, Channels: 1, SampleRate: DefaultSampleRate}
}

// Player plays one buffer at a time. Play blocks until the buffer has been
// played or ctx is done. Device backends return once the device has taken
// the last samples, so up to one device period (tens of milliseconds) may
// still be sounding; a following Play queues behind it and never overlaps.
type Player interface {
	Play(ctx context.Context, buffer Buffer) error
}

func (b Buffer) IsEmpty() bool {
	return len(b.Samples) == 0
}

func (b Buffer) EncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: b.sampleRate(), Channels: b.channels(), Format: EncodingFloat32}
}

// Frames is the number of samples per channel.
func (b Buffer) Frames() int {
	return len(b.Samples) / b.channels()
}

func (b Buffer) Duration() time.Duration {
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.sampleRate())
}

// Clip returns a copy with every sample limited to [-1, 1].
func (b Buffer) Clip() Buffer {
	clipped := make([]float32, len(b.Samples))
	for i, sample := range b.Samples {
		clipped[i] = clip(sample)
	}
	return Buffer{Samples: clipped, Channels: b.Channels, SampleRate: b.SampleRate}
}

// Int16 clips and scales the samples to signed 16-bit integers.
func (b Buffer) Int16() []int16 {
	out := make([]int16, len(b.Samples))
	for i, sample := range b.Samples {
		out[i] = int16(math.Round(float64(clip(sample)) * math.MaxInt16))
	}
	return out
}

// PCM16LE returns the samples as little endian signed 16-bit PCM bytes.
func (b Buffer) PCM16LE() []byte {
	samples := b.Int16()
	out := make([]byte, 2*len(samples))
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(sample))
	}
	return out
}

// Float32LE returns the raw samples as little endian IEEE 754 bytes.
func (b Buffer) Float32LE() []byte {
	out := make([]byte, 4*len(b.Samples))
	for i, sample := range b.Samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(sample))
	}
	return out
}

// FromPCM16LE decodes little endian signed 16-bit PCM into a buffer.
func FromPCM16LE(pcm []byte, channels, sampleRate int) Buffer {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		sample := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(sample) / math.MaxInt16
	}
	return Buffer{Samples: samples, Channels: channels, SampleRate: sampleRate}
}

// FromFloat32LE decodes little endian IEEE 754 samples into a buffer.
func FromFloat32LE(raw []byte, channels, sampleRate int) Buffer {
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return Buffer{Samples: samples, Channels: channels, SampleRate: sampleRate}
}

func (b Buffer) channels() int {
	if b.Channels <= 0 {
		return 1
	}
	return b.Channels
}

func (b Buffer) sampleRate() int {
	if b.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return b.SampleRate
}

// clip maps NaN to silence and bounds everything else to [-1, 1].
func clip(sample float32) float32 {
	if math.IsNaN(float64(sample)) {
		return 0
	}
	return max(-1, min(1, sample))
}
