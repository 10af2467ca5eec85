package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ttschat/core/audio"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	encoding     audio.EncodingInfo

	leftoverAudio []byte
	marks         []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

type playbackMark struct {
	position int
	callback func()
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, encoding audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.audioContext = audioContext
	return c.initDevice(encoding)
}

func (c *playbackClient) Reinit(encoding audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.ClearBuffer()
	return c.initDevice(encoding)
}

func (c *playbackClient) initDevice(encoding audio.EncodingInfo) error {
	sampleRate := uint32(encoding.SampleRate)
	format := malgo.FormatF32
	bytesPerFrame := malgo.SampleSizeInBytes(format) * encoding.Channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(encoding.Channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 20 // ~50ms of audio
	c.config.Periods = 3

	device, err := malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	)
	if err != nil {
		return err
	}

	c.device = device
	c.encoding = encoding
	return nil
}

func (c *playbackClient) Encoding() audio.EncodingInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoding
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}
	if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	started := c.device != nil && c.device.IsStarted()
	c.mu.Unlock()
	if !started {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.leftoverAudio = append(c.leftoverAudio, audio...)
	return nil
}

// Mark registers a callback that fires once everything queued so far has
// been handed to the device.
func (c *playbackClient) Mark(callback func()) {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		position: len(c.leftoverAudio),
		callback: callback,
	})
}

func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	marks := c.marks
	c.leftoverAudio = nil
	c.marks = nil
	c.audioMu.Unlock()

	for _, mark := range marks {
		go mark.callback()
	}
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil
	c.ClearBuffer()
	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		n := copy(pOutput[:need], c.leftoverAudio)
		c.leftoverAudio = c.leftoverAudio[n:]
		passed := c.passMarks(n)
		c.audioMu.Unlock()

		// Underruns are padded with silence, zero bytes in float32.
		clear(pOutput[n:need])

		if len(passed) > 0 {
			go func() {
				for _, mark := range passed {
					mark.callback()
				}
			}()
		}
	}
}

// passMarks advances the marks by consumed bytes and returns the ones that
// have been reached. The caller holds audioMu.
func (c *playbackClient) passMarks(consumed int) []playbackMark {
	passed := 0
	for i := range c.marks {
		c.marks[i].position -= consumed
		if c.marks[i].position <= 0 {
			passed++
		}
	}
	if passed == 0 {
		return nil
	}

	reached := c.marks[:passed:passed]
	c.marks = c.marks[passed:]
	return reached
}
