package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"nathan/pkg/audioconv"
)

// Whisper transcribes locally with a whisper.cpp model.
type Whisper struct {
	model    whisper.Model
	language string
	threads  int

	// whisper contexts share the model's compute buffers.
	mu sync.Mutex
}

func NewWhisper(cfg Config) (*Whisper, error) {
	if cfg.WhisperModel == "" {
		return nil, errors.New("whisper: empty model path")
	}

	m, err := whisper.New(cfg.WhisperModel)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model: %w", err)
	}

	lang := cfg.Language
	if lang == "" {
		lang = "id"
	}
	threads := cfg.WhisperThreads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return &Whisper{model: m, language: lang, threads: threads}, nil
}

func (w *Whisper) Close() error {
	if w.model == nil {
		return nil
	}
	return w.model.Close()
}

func (w *Whisper) Transcribe(ctx context.Context, path string) (string, error) {
	pcm, err := audioconv.DecodeFile(path, audioconv.Options{})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	if len(pcm) == 0 {
		return "", ErrEmptyAudio
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: new context: %w", err)
	}
	if err := wctx.SetLanguage(w.language); err != nil {
		return "", fmt.Errorf("whisper: set language: %w", err)
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(uint(w.threads))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(s.Text))
	}

	return strings.Join(parts, " "), nil
}
