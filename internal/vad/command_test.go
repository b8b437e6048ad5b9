package vad

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// chunkFrames is 60 ms at 16 kHz.
const chunkFrames = 960

// markClassifier treats a chunk as speech when its first sample is non-zero.
type markClassifier struct {
	configured int
	err        error
}

func (m *markClassifier) Configure(int, int) error { m.configured++; return nil }

func (m *markClassifier) IsSpeech(chunk []byte) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return chunk[0] != 0 || chunk[1] != 0, nil
}

func (m *markClassifier) Close() error { return nil }

func chunkOf(v int16) []byte {
	b := make([]byte, chunkFrames*2)
	for i := 0; i < chunkFrames; i++ {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

// feed runs pattern through s. 'S' is speech, '.' silence. It returns the
// verdict after the last processed chunk and how many chunks were consumed.
func feed(t *testing.T, s Session, pattern string) (Verdict, int) {
	t.Helper()
	for i, c := range pattern {
		v := int16(0)
		if c == 'S' {
			v = int16(100 + i)
		}
		verdict, err := s.Process(chunkOf(v))
		if err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
		if verdict != Listening {
			return verdict, i + 1
		}
	}
	return Listening, len(pattern)
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func newTestSession(t *testing.T, opts Options) Session {
	t.Helper()
	s, err := NewCommandDetector(&markClassifier{}).NewSession(opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCommandSession(t *testing.T) {
	opts := Options{
		SampleRate:  16000,
		Sensitivity: 3,
		Silence:     600 * time.Millisecond,
		MinSpeech:   180 * time.Millisecond,
		MaxDuration: 3 * time.Second,
	}

	tests := []struct {
		name       string
		pattern    string
		verdict    Verdict
		consumed   int
		wantChunks int
	}{
		{
			name:       "speech then silence",
			pattern:    "...SSSSS" + repeat('.', 20),
			verdict:    Complete,
			consumed:   8 + 10,
			wantChunks: 5,
		},
		{
			name:       "short pause kept",
			pattern:    "SSSS....SS" + repeat('.', 10),
			verdict:    Complete,
			consumed:   10 + 10,
			wantChunks: 10,
		},
		{
			name:     "blip is not a command",
			pattern:  "SS." + repeat('.', 60),
			verdict:  Failed,
			consumed: 50,
		},
		{
			name:       "max duration completes a command",
			pattern:    "SSS" + repeat('S', 60),
			verdict:    Complete,
			consumed:   50,
			wantChunks: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, opts)

			verdict, consumed := feed(t, s, tt.pattern)
			if verdict != tt.verdict {
				t.Fatalf("verdict = %s, want %s", verdict, tt.verdict)
			}
			if consumed != tt.consumed {
				t.Errorf("consumed %d chunks, want %d", consumed, tt.consumed)
			}

			pcm := s.Stop()
			if got := len(pcm) / (chunkFrames * 2); got != tt.wantChunks {
				t.Errorf("command has %d chunks, want %d", got, tt.wantChunks)
			}
		})
	}
}

func TestCommandSessionStopTrimsTrailingSilence(t *testing.T) {
	s := newTestSession(t, Options{SampleRate: 16000, Silence: 240 * time.Millisecond, MinSpeech: 60 * time.Millisecond})

	verdict, _ := feed(t, s, "..SS.S....")
	if verdict != Complete {
		t.Fatalf("verdict = %s", verdict)
	}

	pcm := s.Stop()
	if len(pcm) != 4*chunkFrames*2 {
		t.Fatalf("len = %d, want 4 chunks", len(pcm)/(chunkFrames*2))
	}
	// first kept chunk is the onset at index 2
	if v := int16(binary.LittleEndian.Uint16(pcm)); v != 102 {
		t.Errorf("first sample = %d, want 102", v)
	}

	if again := s.Stop(); len(again) != 0 {
		t.Errorf("second Stop returned %d bytes", len(again))
	}
}

func TestCommandSessionLifecycle(t *testing.T) {
	det := NewCommandDetector(&markClassifier{})
	s, err := det.NewSession(Options{Silence: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Process(chunkOf(1)); !errors.Is(err, ErrNotStarted) {
		t.Errorf("process before start: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if pcm := s.Stop(); pcm != nil {
		t.Errorf("stop without verdict returned %d bytes", len(pcm))
	}
}

func TestCommandSessionClassifierError(t *testing.T) {
	boom := errors.New("boom")
	s, err := NewCommandDetector(&markClassifier{err: boom}).NewSession(Options{Silence: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	verdict, err := s.Process(chunkOf(1))
	if !errors.Is(err, boom) || verdict != Failed {
		t.Fatalf("got %s, %v", verdict, err)
	}
	if _, err := s.Process(chunkOf(1)); !errors.Is(err, ErrFinished) {
		t.Errorf("process after failure: %v", err)
	}
}

func TestOptionsValidation(t *testing.T) {
	det := NewCommandDetector(&markClassifier{})

	bad := []Options{
		{Sensitivity: 4, Silence: time.Second},
		{Sensitivity: -1, Silence: time.Second},
		{Silence: -time.Second},
		{Silence: time.Second, MaxDuration: -time.Second},
	}
	for _, o := range bad {
		if _, err := det.NewSession(o); err == nil {
			t.Errorf("NewSession(%+v) succeeded", o)
		}
	}
}
