package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

type Encoding string

const (
	MP3 Encoding = "mp3"
	WAV Encoding = "wav"
)

// EncodingOf guesses the encoding from a file extension.
func EncodingOf(path string) (Encoding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return MP3, nil
	case ".wav":
		return WAV, nil
	default:
		return "", fmt.Errorf("unsupported audio file %q", path)
	}
}

// Player plays decoded audio on the default output device. The speaker is
// initialized on first use with the rate of the first clip; later clips are
// resampled to it.
type Player struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

func NewPlayer() *Player { return &Player{} }

// Play blocks until r has been played or ctx is done.
func (p *Player) Play(ctx context.Context, r io.Reader, enc Encoding) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch enc {
	case MP3:
		streamer, format, err = mp3.Decode(io.NopCloser(r))
	case WAV:
		streamer, format, err = wav.Decode(r)
	default:
		return fmt.Errorf("unsupported encoding %q", enc)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", enc, err)
	}
	defer streamer.Close()

	if p.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		p.rate = format.SampleRate
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func (p *Player) PlayFile(ctx context.Context, path string) error {
	enc, err := EncodingOf(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.Play(ctx, f, enc)
}
