package vad

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/streamer45/silero-vad-go/speech"
)

// fakeSilero mimics the detector's window loop: it scores every full window
// followed by at least one more sample, keeps the triggered state between
// calls, and fails on an end whose start came from an earlier call.
type fakeSilero struct {
	cfg       speech.DetectorConfig
	triggered bool
	calls     []int
	scored    int
	resets    int
	destroyed bool
}

func (m *fakeSilero) Detect(pcm []float32) ([]speech.Segment, error) {
	const window = 512
	if len(pcm) < window {
		return nil, errors.New("not enough samples")
	}
	m.calls = append(m.calls, len(pcm))

	var segments []speech.Segment
	for i := 0; i < len(pcm)-window; i += window {
		m.scored += window
		loud := false
		for _, v := range pcm[i : i+window] {
			if v > 0.5 || v < -0.5 {
				loud = true
				break
			}
		}
		switch {
		case loud && !m.triggered:
			m.triggered = true
			segments = append(segments, speech.Segment{SpeechStartAt: 1})
		case !loud && m.triggered:
			m.triggered = false
			if len(segments) == 0 {
				return nil, errors.New("unexpected speech end")
			}
			segments[len(segments)-1].SpeechEndAt = 2
		}
	}
	return segments, nil
}

func (m *fakeSilero) Reset() error {
	m.resets++
	m.triggered = false
	return nil
}

func (m *fakeSilero) Destroy() error {
	m.destroyed = true
	return nil
}

func newFakeSilero(t *testing.T) (*Silero, *[]*fakeSilero) {
	t.Helper()
	var built []*fakeSilero
	s := NewSilero("model.onnx")
	s.newModel = func(cfg speech.DetectorConfig) (sileroModel, error) {
		m := &fakeSilero{cfg: cfg}
		built = append(built, m)
		return m, nil
	}
	return s, &built
}

func splitChunk(head, tail int16, split int) []byte {
	b := make([]byte, chunkFrames*2)
	for i := 0; i < chunkFrames; i++ {
		v := head
		if i >= split {
			v = tail
		}
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestSileroKeepsStateAcrossChunks(t *testing.T) {
	s, built := newFakeSilero(t)
	if err := s.Configure(16000, 1); err != nil {
		t.Fatal(err)
	}

	chunks := []struct {
		name string
		data []byte
		want bool
	}{
		{"speech", chunkOf(30000), true},
		{"speech tail then silence", chunkOf(0), true},
		{"silence", chunkOf(0), false},
	}
	for _, c := range chunks {
		got, err := s.IsSpeech(c.data)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: IsSpeech = %v, want %v", c.name, got, c.want)
		}
	}

	m := (*built)[0]
	if m.resets != 0 {
		t.Errorf("model reset %d times during a session", m.resets)
	}
	for i, n := range m.calls {
		if n != 513 {
			t.Errorf("call %d got %d samples, want one window plus one", i, n)
		}
	}
	if m.scored != 5*512 {
		t.Errorf("scored %d samples, want %d", m.scored, 5*512)
	}
	if len(s.pending) != 3*chunkFrames-5*512 {
		t.Errorf("pending = %d samples", len(s.pending))
	}
	if m.cfg.Threshold != sileroThresholds[1] || m.cfg.SampleRate != 16000 {
		t.Errorf("config = %+v", m.cfg)
	}
}

func TestSileroScoresChunkTail(t *testing.T) {
	s, _ := newFakeSilero(t)
	if err := s.Configure(16000, 2); err != nil {
		t.Fatal(err)
	}

	// Only the last 448 samples carry speech; the first window is silent.
	got, err := s.IsSpeech(splitChunk(0, 30000, 512))
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("silent first window reported as speech")
	}

	got, err = s.IsSpeech(chunkOf(0))
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("speech at the end of the previous chunk was never scored")
	}
}

func TestSileroConfigure(t *testing.T) {
	s, built := newFakeSilero(t)

	if err := s.Configure(16000, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.IsSpeech(chunkOf(30000)); err != nil {
		t.Fatal(err)
	}

	// Same settings reuse the model and drop the old session's state.
	if err := s.Configure(16000, 3); err != nil {
		t.Fatal(err)
	}
	if len(*built) != 1 || (*built)[0].resets != 1 {
		t.Fatalf("built %d models, resets %d", len(*built), (*built)[0].resets)
	}
	if len(s.pending) != 0 || s.triggered {
		t.Errorf("state survived configure: pending=%d triggered=%v", len(s.pending), s.triggered)
	}

	if err := s.Configure(8000, 0); err != nil {
		t.Fatal(err)
	}
	if len(*built) != 2 || !(*built)[0].destroyed {
		t.Errorf("model not rebuilt on new settings")
	}
	if s.window != 256 {
		t.Errorf("window = %d at 8 kHz", s.window)
	}

	if err := s.Configure(16000, MaxSensitivity+1); err == nil {
		t.Error("expected error for out of range sensitivity")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.IsSpeech(chunkOf(0)); err == nil {
		t.Error("IsSpeech after Close succeeded")
	}
}
