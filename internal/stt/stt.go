// Package stt turns a recorded utterance into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"nathan/internal/audio"
	"nathan/pkg/audioconv"
)

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type Config struct {
	// Backend is one of deepgram, google or whisper.
	Backend  string
	Language string

	DeepgramKey   string
	DeepgramURL   string
	DeepgramModel string

	GoogleCredentials string

	WhisperModel   string
	WhisperThreads int

	HTTPClient *http.Client
}

var ErrEmptyAudio = errors.New("empty audio")

// New builds the configured backend. The caller owns Close when the result
// implements io.Closer.
func New(ctx context.Context, cfg Config) (Transcriber, error) {
	switch cfg.Backend {
	case "deepgram", "":
		return NewDeepgram(cfg), nil
	case "google":
		return NewGoogle(ctx, cfg)
	case "whisper":
		return NewWhisper(cfg)
	default:
		return nil, fmt.Errorf("unknown stt backend %q", cfg.Backend)
	}
}

// readWAV returns path as WAV bytes. Files that are not 16 kHz mono 16-bit
// WAV are converted first.
func readWAV(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if isTargetWAV(b) {
			return b, nil
		}
	}

	samples, err := audioconv.DecodeFile(path, audioconv.Options{})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	return audio.EncodeWAV(audio.Float32ToPCM16(samples), audio.DefaultFormat)
}

// isTargetWAV checks a canonical header for 16 kHz mono 16-bit PCM.
func isTargetWAV(b []byte) bool {
	if len(b) < 44 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return false
	}
	channels := int(b[22]) | int(b[23])<<8
	rate := int(b[24]) | int(b[25])<<8 | int(b[26])<<16 | int(b[27])<<24
	depth := int(b[34]) | int(b[35])<<8
	return channels == 1 && rate == audioconv.TargetRate && depth == 16
}

func languageCode(lang string) string {
	if lang == "" {
		lang = "id"
	}
	if strings.Contains(lang, "-") {
		return lang
	}
	return lang + "-" + strings.ToUpper(lang)
}
