package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// WriteWAVFile writes the buffer as a 16-bit PCM WAV file.
func WriteWAVFile(path string, buffer Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, buffer); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteWAV writes the buffer to out as a 16-bit PCM WAV stream.
func WriteWAV(out io.Writer, buffer Buffer) error {
	const (
		bitsPerSample = 16
		audioFormat   = 1 // PCM
		headerSize    = 36
	)

	pcm := buffer.PCM16LE()
	channels := buffer.channels()
	sampleRate := buffer.sampleRate()

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(headerSize + len(pcm)),
		[4]byte{'W', 'A', 'V', 'E'},

		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(audioFormat),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * channels * bitsPerSample / 8),
		uint16(channels * bitsPerSample / 8),
		uint16(bitsPerSample),

		[4]byte{'d', 'a', 't', 'a'},
		uint32(len(pcm)),
	}

	w := bufio.NewWriter(out)
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}
