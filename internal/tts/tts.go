// Package tts synthesizes Nathan's spoken answers.
package tts

import (
	"context"
	"fmt"
	"net/http"

	"nathan/internal/audio"
	"nathan/internal/persona"
)

// Speech is encoded audio ready for playback.
type Speech struct {
	Audio    []byte
	Encoding audio.Encoding
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, emotion persona.Emotion) (Speech, error)
}

type Config struct {
	// Backend is google or elevenlabs.
	Backend  string
	Language string
	Voice    string

	GoogleCredentials string

	ElevenLabsKey   string
	ElevenLabsModel string

	HTTPClient *http.Client
}

func New(ctx context.Context, cfg Config) (Synthesizer, error) {
	switch cfg.Backend {
	case "google", "":
		return NewGoogle(ctx, cfg)
	case "elevenlabs":
		return NewElevenLabs(cfg)
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.Backend)
	}
}
