package tts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"

	"nathan/internal/audio"
	"nathan/internal/persona"
)

const (
	elevenLabsModel   = "eleven_multilingual_v2"
	elevenLabsVoice   = "JBFqnCBsd6RMkjVDRZzb"
	elevenLabsFormat  = "mp3_44100_128"
	elevenLabsTimeout = 60 * time.Second
)

// ElevenLabs synthesizes with the ElevenLabs API. The client library sends
// through http.DefaultTransport, which carries the proxy when one is set.
type ElevenLabs struct {
	key     string
	model   string
	voice   string
	timeout time.Duration
}

func NewElevenLabs(cfg Config) (*ElevenLabs, error) {
	if cfg.ElevenLabsKey == "" {
		return nil, errors.New("elevenlabs: missing api key")
	}

	e := &ElevenLabs{
		key:     cfg.ElevenLabsKey,
		model:   cfg.ElevenLabsModel,
		voice:   cfg.Voice,
		timeout: elevenLabsTimeout,
	}
	if e.model == "" {
		e.model = elevenLabsModel
	}
	if e.voice == "" {
		e.voice = elevenLabsVoice
	}
	if cfg.HTTPClient != nil && cfg.HTTPClient.Timeout > 0 {
		e.timeout = cfg.HTTPClient.Timeout
	}
	return e, nil
}

// voiceFor lowers stability for a livelier delivery.
func voiceFor(e persona.Emotion) *elevenlabs.VoiceSettings {
	switch e {
	case persona.Excited:
		return &elevenlabs.VoiceSettings{Stability: 0.3, SimilarityBoost: 0.7, Style: 0.6}
	case persona.Sad:
		return &elevenlabs.VoiceSettings{Stability: 0.8, SimilarityBoost: 0.7, Style: 0.2}
	default:
		return &elevenlabs.VoiceSettings{Stability: 0.5, SimilarityBoost: 0.7, Style: 0.4}
	}
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func (e *ElevenLabs) Synthesize(ctx context.Context, text string, emotion persona.Emotion) (Speech, error) {
	// ElevenLabs reads markup aloud.
	if IsSSML(text) {
		text = strings.Join(strings.Fields(tagRe.ReplaceAllString(text, " ")), " ")
	}

	// The library binds a client to one parent context.
	client := elevenlabs.NewClient(ctx, e.key, e.timeout)
	b, err := client.TextToSpeech(e.voice, elevenlabs.TextToSpeechRequest{
		Text:          text,
		ModelID:       e.model,
		VoiceSettings: voiceFor(emotion),
	}, elevenlabs.OutputFormat(elevenLabsFormat))
	if err != nil {
		return Speech{}, fmt.Errorf("elevenlabs: %w", err)
	}

	return Speech{Audio: b, Encoding: audio.MP3}, nil
}
