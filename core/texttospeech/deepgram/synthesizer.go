// Package deepgram synthesizes speech with the Deepgram speak websocket API.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	APIKeyEnv       = "DEEPGRAM_API_KEY"
	DefaultEndpoint = "wss://api.deepgram.com/v1/speak"

	// maxSpeakLength is the largest text a single Speak message may carry.
	maxSpeakLength = 2000
)

type Synthesizer struct {
	apiKey     string
	endpoint   string
	voice      string
	sampleRate int
	dialer     *websocket.Dialer
}

type Option func(*Synthesizer)

// WithAPIKey overrides the key read from DEEPGRAM_API_KEY.
func WithAPIKey(key string) Option {
	return func(s *Synthesizer) {
		if key != "" {
			s.apiKey = key
		}
	}
}

func WithEndpoint(endpoint string) Option {
	return func(s *Synthesizer) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

func WithDefaultVoice(voice string) Option {
	return func(s *Synthesizer) {
		if voice = resolveVoice(voice); voice != "" {
			s.voice = voice
		}
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(s *Synthesizer) {
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(s *Synthesizer) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

// New returns a synthesizer or a *texttospeech.ConfigurationError when no API
// key is available.
func New(opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{
		apiKey:     strings.TrimSpace(os.Getenv(APIKeyEnv)),
		endpoint:   DefaultEndpoint,
		voice:      defaultVoice,
		sampleRate: audio.DefaultSampleRate,
		dialer:     websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.apiKey == "" {
		return nil, &texttospeech.ConfigurationError{
			Path: APIKeyEnv,
			Hint: "create an API key in the Deepgram console and export it as " + APIKeyEnv,
		}
	}
	if !IsVoice(s.voice) {
		return nil, fmt.Errorf("%w: %q", texttospeech.ErrUnknownVoice, s.voice)
	}

	return s, nil
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var (
	flushMsg = speakMessage{Type: "Flush"}
	closeMsg = speakMessage{Type: "Close"}
)

type serverMessage struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ErrMsg      string `json:"err_msg"`
}

// Synthesize opens a speak connection for text and yields the whole reply as
// one buffer once the server confirms the flush. The speak API has no rate
// control, so speed is ignored.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string, speed float64) iter.Seq2[audio.Buffer, error] {
	return func(yield func(audio.Buffer, error) bool) {
		model := resolveVoice(voice)
		if model == "" {
			model = s.voice
		}
		if !IsVoice(model) {
			yield(audio.Buffer{}, fmt.Errorf("%w: %q", texttospeech.ErrUnknownVoice, voice))
			return
		}
		if strings.TrimSpace(text) == "" {
			return
		}

		ctx, span := tracer.Start(ctx, "deepgram synthesize", trace.WithAttributes(
			attribute.String("tts.voice", model),
			attribute.Float64("tts.speed", speed),
			attribute.Int("tts.text_length", len(text)),
		))
		defer span.End()

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			yield(audio.Buffer{}, err)
		}

		conn, err := s.dial(ctx, model)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(err)
			return
		}
		defer conn.Close()
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		for _, chunk := range splitText(text, maxSpeakLength) {
			if err := conn.WriteJSON(speakMessage{Type: "Speak", Text: chunk}); err != nil {
				if ctx.Err() != nil {
					return
				}
				fail(&texttospeech.SynthesisError{Engine: "deepgram", Message: "failed to send text", Cause: err})
				return
			}
		}
		if err := conn.WriteJSON(flushMsg); err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(&texttospeech.SynthesisError{Engine: "deepgram", Message: "failed to flush", Cause: err})
			return
		}

		pcm, err := receiveAudio(conn)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(err)
			return
		}
		if err := conn.WriteJSON(closeMsg); err != nil {
			logger.DebugContext(ctx, "failed to send close message", "error", err)
		}

		span.SetAttributes(attribute.Int("tts.audio_bytes", len(pcm)))
		if len(pcm) == 0 {
			return
		}
		yield(audio.FromPCM16LE(pcm, 1, s.sampleRate), nil)
	}
}

func (s *Synthesizer) Voice() string {
	return s.voice
}

func (s *Synthesizer) dial(ctx context.Context, model string) (*websocket.Conn, error) {
	endpoint, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid deepgram endpoint: %w", err)
	}

	query := endpoint.Query()
	query.Set("encoding", audio.EncodingLinear16.Name())
	query.Set("sample_rate", strconv.Itoa(s.sampleRate))
	query.Set("model", model)
	query.Set("container", "none")
	endpoint.RawQuery = query.Encode()

	conn, resp, err := s.dialer.DialContext(ctx, endpoint.String(), http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		msg := "failed to open socket connection"
		if resp != nil {
			msg = fmt.Sprintf("%s (%s)", msg, resp.Status)
		}
		return nil, &texttospeech.SynthesisError{Engine: "deepgram", Message: msg, Cause: err}
	}
	return conn, nil
}

// receiveAudio collects binary frames until the server confirms the flush.
func receiveAudio(conn *websocket.Conn) ([]byte, error) {
	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, &texttospeech.SynthesisError{Engine: "deepgram", Message: "connection lost", Cause: err}
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var parsedMsg serverMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to parse deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return pcm, nil
			case "Warning":
				logger.Warn("deepgram warning", "description", parsedMsg.Description)
			case "Error":
				message := parsedMsg.Description
				if message == "" {
					message = parsedMsg.ErrMsg
				}
				return nil, &texttospeech.SynthesisError{Engine: "deepgram", Message: message}
			}
		}
	}
}

// splitText cuts text into pieces of at most limit bytes, preferring to cut
// after whitespace.
func splitText(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexAny(text[:limit], " \n\t")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		} else {
			cut++
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

var _ texttospeech.Synthesizer = (*Synthesizer)(nil)
