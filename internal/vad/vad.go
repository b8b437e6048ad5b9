// Package vad decides when a spoken command starts and ends.
//
// A Session consumes raw 16-bit mono PCM chunks and reports a Verdict per
// chunk. The speech/non-speech decision for a single chunk is delegated to a
// Classifier backed by an external VAD library.
package vad

import (
	"errors"
	"fmt"
	"time"
)

type Verdict int

const (
	// Listening means the command is not finished yet.
	Listening Verdict = iota
	// Complete means speech was heard and followed by enough silence.
	Complete
	// Failed means the session gave up without a command.
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Listening:
		return "listening"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MaxSensitivity is the most aggressive cutoff level.
const MaxSensitivity = 3

var (
	ErrNotStarted = errors.New("vad session not started")
	ErrFinished   = errors.New("vad session already finished")
)

type Options struct {
	SampleRate int
	// Sensitivity ranges 0..MaxSensitivity, higher cuts off more aggressively.
	Sensitivity int
	// Silence is the trailing silence that ends a command.
	Silence time.Duration
	// MinSpeech is the amount of consecutive speech that confirms a command.
	MinSpeech time.Duration
	// MaxDuration caps a session; zero disables the cap.
	MaxDuration time.Duration
}

func DefaultOptions() Options {
	return Options{
		SampleRate:  16000,
		Sensitivity: MaxSensitivity,
		Silence:     4 * time.Second,
		MinSpeech:   300 * time.Millisecond,
		MaxDuration: 30 * time.Second,
	}
}

func (o Options) validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", o.SampleRate)
	}
	if o.Sensitivity < 0 || o.Sensitivity > MaxSensitivity {
		return fmt.Errorf("sensitivity must be between 0 and %d, got %d", MaxSensitivity, o.Sensitivity)
	}
	if o.Silence <= 0 {
		return fmt.Errorf("silence duration must be positive, got %s", o.Silence)
	}
	if o.MinSpeech < 0 || o.MaxDuration < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// Session tracks one command. It is not safe for concurrent use.
type Session interface {
	Start() error
	// Process classifies one chunk. The chunk may be reused by the caller
	// after Process returns.
	Process(chunk []byte) (Verdict, error)
	// Stop ends the session and returns the command audio. The audio is
	// empty unless the session completed.
	Stop() []byte
}

type Detector interface {
	NewSession(opts Options) (Session, error)
}

// Classifier makes the per-chunk speech decision.
type Classifier interface {
	Configure(sampleRate, sensitivity int) error
	IsSpeech(chunk []byte) (bool, error)
	Close() error
}

// NewClassifier builds the named engine: webrtc, silero or energy.
func NewClassifier(engine, sileroModel string) (Classifier, error) {
	switch engine {
	case "webrtc", "":
		return NewWebRTC()
	case "silero":
		if sileroModel == "" {
			return nil, errors.New("silero needs a model path")
		}
		return NewSilero(sileroModel), nil
	case "energy":
		return NewEnergy(), nil
	default:
		return nil, fmt.Errorf("unknown vad engine %q", engine)
	}
}
