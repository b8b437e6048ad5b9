package vad

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/streamer45/silero-vad-go/speech"
)

var sileroThresholds = [MaxSensitivity + 1]float32{0.3, 0.5, 0.6, 0.75}

// The detector reports a speech end whose start was returned by an earlier
// Detect call as this error. Its state is already updated when it does.
const sileroSpeechEnd = "unexpected speech end"

type sileroModel interface {
	Detect(pcm []float32) ([]speech.Segment, error)
	Reset() error
	Destroy() error
}

func newSileroModel(cfg speech.DetectorConfig) (sileroModel, error) {
	return speech.NewDetector(cfg)
}

// Silero classifies chunks with the Silero ONNX model. Audio is fed one model
// window at a time and the model keeps its state across chunks, so a chunk
// counts as speech while the detector is inside a speech segment.
type Silero struct {
	modelPath string
	newModel  func(speech.DetectorConfig) (sileroModel, error)

	model       sileroModel
	sampleRate  int
	sensitivity int
	window      int

	pending   []float32
	triggered bool
}

func NewSilero(modelPath string) *Silero {
	return &Silero{modelPath: modelPath, newModel: newSileroModel}
}

func sileroWindow(sampleRate int) int {
	if sampleRate == 8000 {
		return 256
	}
	return 512
}

// Configure prepares the detector for a new session. The model is rebuilt
// only when the rate or sensitivity changes; otherwise its state is reset.
func (s *Silero) Configure(sampleRate, sensitivity int) error {
	if sensitivity < 0 || sensitivity > MaxSensitivity {
		return fmt.Errorf("silero: invalid sensitivity %d", sensitivity)
	}

	s.pending = s.pending[:0]
	s.triggered = false

	if s.model != nil && s.sampleRate == sampleRate && s.sensitivity == sensitivity {
		if err := s.model.Reset(); err != nil {
			return fmt.Errorf("silero reset: %w", err)
		}
		return nil
	}

	if err := s.Close(); err != nil {
		return err
	}

	m, err := s.newModel(speech.DetectorConfig{
		ModelPath:            s.modelPath,
		SampleRate:           sampleRate,
		Threshold:            sileroThresholds[sensitivity],
		MinSilenceDurationMs: 0,
		SpeechPadMs:          0,
	})
	if err != nil {
		return fmt.Errorf("create silero detector: %w", err)
	}

	s.model = m
	s.sampleRate = sampleRate
	s.sensitivity = sensitivity
	s.window = sileroWindow(sampleRate)
	return nil
}

// IsSpeech appends the chunk to the pending samples and runs the model on
// every complete window. Samples short of a window wait for the next chunk.
func (s *Silero) IsSpeech(chunk []byte) (bool, error) {
	if s.model == nil {
		return false, fmt.Errorf("silero: not configured")
	}

	for i := 0; i+1 < len(chunk); i += 2 {
		s.pending = append(s.pending, float32(int16(binary.LittleEndian.Uint16(chunk[i:])))/32768.0)
	}

	voiced := s.triggered
	consumed := 0
	// Detect only infers while more than a window remains, so each call gets
	// one window plus the first sample of the next.
	for len(s.pending)-consumed > s.window {
		segments, err := s.model.Detect(s.pending[consumed : consumed+s.window+1])
		switch {
		case err != nil && strings.Contains(err.Error(), sileroSpeechEnd):
			s.triggered = false
		case err != nil:
			return false, fmt.Errorf("detect: %w", err)
		case len(segments) > 0:
			s.triggered = segments[len(segments)-1].SpeechEndAt == 0
		}
		voiced = voiced || s.triggered
		consumed += s.window
	}

	n := copy(s.pending, s.pending[consumed:])
	s.pending = s.pending[:n]

	return voiced, nil
}

func (s *Silero) Close() error {
	if s.model == nil {
		return nil
	}
	err := s.model.Destroy()
	s.model = nil
	return err
}
