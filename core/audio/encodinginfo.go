package audio

// DefaultSampleRate is the output rate of the Kokoro engine.
const DefaultSampleRate = 24000

type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     EncodingFormat
}

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Channels: 1, Format: EncodingFloat32}
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Channels == 0 || e.Format.Name() == ""
}

// BytesPerFrame is the size of one frame across all channels, or -1 for an
// unknown format.
func (e EncodingInfo) BytesPerFrame() int {
	size := e.Format.ByteSize()
	if size < 0 {
		return -1
	}
	return size * e.Channels
}

type EncodingFormat string

func (e EncodingFormat) Name() string {
	return string(e)
}

func (e EncodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	case EncodingFloat32:
		return 4
	}
	return -1
}

const (
	EncodingLinear16 EncodingFormat = "linear16"
	EncodingFloat32  EncodingFormat = "float32"
)
