package kokoro

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ttschat/core/audio"
	"github.com/koscakluka/ttschat/core/texttospeech"
)

const (
	opSynthesize = "synthesize"
	opLoadVoice  = "load_voice"
	opSaveVoice  = "save_voice"
	opDownload   = "download"

	closeGracePeriod = 1200 * time.Millisecond
	stderrTailSize   = 2048
)

// worker is the engine process. It reads one JSON request per line on stdin
// and answers each with one JSON line on stdout, strictly in order, so a
// single request may be in flight at a time.
type worker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	dec    *json.Decoder
	stderr *tailBuffer
	closed bool
	// resident holds the stored voices the engine has already loaded from
	// their files. Requests for them carry only the voice name.
	resident map[string]bool
}

type workerRequest struct {
	ID        string  `json:"id"`
	Op        string  `json:"op"`
	Text      string  `json:"text,omitempty"`
	Voice     string  `json:"voice,omitempty"`
	VoicePath string  `json:"voice_path,omitempty"`
	LangCode  string  `json:"lang_code,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	// Shape and DataBase64 carry an inline voice tensor as little endian
	// float32 values.
	Shape      []int64 `json:"shape,omitempty"`
	DataBase64 string  `json:"data_base64,omitempty"`
	// ModelDir, Repo and Patterns describe a snapshot download.
	ModelDir string   `json:"model_dir,omitempty"`
	Repo     string   `json:"repo,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

type workerResponse struct {
	ID          string  `json:"id"`
	OK          bool    `json:"ok"`
	Error       string  `json:"error"`
	SampleRate  int     `json:"sample_rate"`
	Channels    int     `json:"channels"`
	AudioBase64 string  `json:"audio_base64"`
	Shape       []int64 `json:"shape"`
	DataBase64  string  `json:"data_base64"`
}

func startWorker(command []string, env []string) (*worker, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("kokoro worker command is empty")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(), env...)
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start kokoro worker: %w", err)
	}

	return &worker{
		cmd:      cmd,
		stdin:    stdin,
		dec:      json.NewDecoder(stdout),
		stderr:   stderr,
		resident: map[string]bool{},
	}, nil
}

func (w *worker) synthesize(ctx context.Context, text string, voice Voice, inline bool, path, langCode string, speed float64) (audio.Buffer, error) {
	req := workerRequest{
		Op:       opSynthesize,
		Text:     text,
		Voice:    voice.Name,
		LangCode: langCode,
		Speed:    speed,
	}
	if inline {
		req.Shape = voice.Shape
		req.DataBase64 = encodeFloat32(voice.Data)
	} else if !w.isResident(voice.Name) {
		req.VoicePath = path
	}

	resp, err := w.do(ctx, req)
	if err != nil {
		return audio.Buffer{}, err
	}
	if req.VoicePath != "" {
		w.setResident(voice.Name, true)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return audio.Buffer{}, &texttospeech.SynthesisError{Engine: "kokoro", Message: "invalid audio payload", Cause: err}
	}
	channels := max(resp.Channels, 1)
	sampleRate := resp.SampleRate
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return audio.FromFloat32LE(raw, channels, sampleRate), nil
}

func (w *worker) loadVoice(ctx context.Context, path string) (Voice, error) {
	resp, err := w.do(ctx, workerRequest{Op: opLoadVoice, VoicePath: path})
	if err != nil {
		return Voice{}, err
	}

	data, err := decodeFloat32(resp.DataBase64)
	if err != nil {
		return Voice{}, &texttospeech.SynthesisError{Engine: "kokoro", Message: "invalid voice payload", Cause: err}
	}
	if elements := shapeSize(resp.Shape); elements != len(data) {
		return Voice{}, &texttospeech.SynthesisError{
			Engine:  "kokoro",
			Message: fmt.Sprintf("voice shape %v does not match %d values", resp.Shape, len(data)),
		}
	}
	return Voice{Shape: resp.Shape, Data: data}, nil
}

func (w *worker) saveVoice(ctx context.Context, path string, voice Voice) error {
	_, err := w.do(ctx, workerRequest{
		Op:         opSaveVoice,
		Voice:      voice.Name,
		VoicePath:  path,
		Shape:      voice.Shape,
		DataBase64: encodeFloat32(voice.Data),
	})
	if err != nil {
		return err
	}
	w.setResident(voice.Name, false)
	return nil
}

// download fetches the model repository into dir. Patterns limit the
// download to matching files; none fetches the whole snapshot.
func (w *worker) download(ctx context.Context, dir string, patterns []string) error {
	_, err := w.do(ctx, workerRequest{Op: opDownload, ModelDir: dir, Repo: Repository, Patterns: patterns})
	return err
}

func (w *worker) isResident(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resident[name]
}

func (w *worker) setResident(name string, resident bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if resident {
		w.resident[name] = true
	} else {
		delete(w.resident, name)
	}
}

// do sends one request and waits for its answer. A request that was written
// is always read back, even when ctx is done meanwhile, to keep the protocol
// in sync.
func (w *worker) do(ctx context.Context, req workerRequest) (workerResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return workerResponse{}, fmt.Errorf("kokoro worker closed")
	}
	if err := ctx.Err(); err != nil {
		return workerResponse{}, err
	}

	req.ID = uuid.NewString()
	line, err := json.Marshal(req)
	if err != nil {
		return workerResponse{}, err
	}
	if _, err := w.stdin.Write(append(line, '\n')); err != nil {
		return workerResponse{}, w.crashed("failed to send request", err)
	}

	var resp workerResponse
	if err := w.dec.Decode(&resp); err != nil {
		return workerResponse{}, w.crashed("failed to read response", err)
	}
	if resp.ID != req.ID {
		return workerResponse{}, &texttospeech.SynthesisError{
			Engine:  "kokoro",
			Message: fmt.Sprintf("worker out of sync (got %q, expected %q)", resp.ID, req.ID),
		}
	}
	if !resp.OK {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = "unknown kokoro error"
		}
		return workerResponse{}, &texttospeech.SynthesisError{Engine: "kokoro", Message: msg}
	}

	return resp, nil
}

func (w *worker) crashed(msg string, err error) error {
	if tail := strings.TrimSpace(w.stderr.String()); tail != "" {
		msg += ": " + tail
	}
	return &texttospeech.SynthesisError{Engine: "kokoro", Message: msg, Cause: err}
}

func (w *worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	stdin := w.stdin
	cmd := w.cmd
	w.stdin = nil
	w.cmd = nil
	w.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(closeGracePeriod):
		_ = cmd.Process.Kill()
		<-done
	case <-done:
	}
	return nil
}

func encodeFloat32(values []float32) string {
	raw := make([]byte, 4*len(values))
	for i, value := range values {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(value))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeFloat32(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a float32 array", len(raw))
	}
	return audio.FromFloat32LE(raw, 1, 0).Samples, nil
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	size := 1
	for _, dim := range shape {
		size *= int(dim)
	}
	return size
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   bytes.Buffer
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Write(p)
	if overflow := b.buf.Len() - b.limit; overflow > 0 {
		b.buf.Next(overflow)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
