package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "log/slog"

	"nathan/internal/audio"
	"nathan/internal/llm"
	"nathan/internal/metrics"
	"nathan/internal/persona"
	"nathan/internal/status"
	"nathan/internal/stt"
	"nathan/internal/tts"
)

type Recorder interface {
	CaptureUtterance(ctx context.Context, outputDir string, silence time.Duration, sensitivity int) (string, error)
}

type Player interface {
	Play(ctx context.Context, r io.Reader, enc audio.Encoding) error
}

type Cue interface {
	Play(ctx context.Context) error
}

// Ducker quiets other applications during capture.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Config struct {
	RecordDir   string
	Silence     time.Duration
	Sensitivity int
	// KeepRecordings leaves captured WAV files on disk after the turn.
	KeepRecordings bool
}

// Deps are the collaborators of a Loop. Cue, Ducker and Status may be nil.
type Deps struct {
	Recorder    Recorder
	Transcriber stt.Transcriber
	Completer   llm.Completer
	Synthesizer tts.Synthesizer
	Player      Player
	Cue         Cue
	Ducker      Ducker
	Status      status.Sink
}

var ErrEmptyTranscript = errors.New("empty transcript")

type Loop struct {
	cfg     Config
	session *Session
	deps    Deps
}

func NewLoop(cfg Config, session *Session, deps Deps) *Loop {
	if deps.Status == nil {
		deps.Status = status.LogSink{}
	}
	return &Loop{cfg: cfg, session: session, deps: deps}
}

func (l *Loop) Session() *Session { return l.session }

func (l *Loop) report(kind status.Kind, text string) {
	l.deps.Status.Publish(status.Event{
		Session: l.session.ID,
		Kind:    kind,
		Text:    text,
		Time:    time.Now(),
	})
}

// Intro greets the user.
func (l *Loop) Intro(ctx context.Context) error {
	l.report(status.KindIntro, "Perkenalan")
	return l.speak(ctx, persona.Intro, persona.Excited)
}

// Turn runs one listen, transcribe, answer, speak cycle.
func (l *Loop) Turn(ctx context.Context) error {
	l.report(status.KindListening, "Mendengarkan...")

	if l.deps.Cue != nil {
		if err := l.deps.Cue.Play(ctx); err != nil {
			log.Warn("listening cue", "err", err)
		}
	}

	path, err := l.capture(ctx)
	if err != nil {
		return err
	}
	if !l.cfg.KeepRecordings {
		defer os.Remove(path)
	}
	l.report(status.KindCaptured, "Selesai mendengarkan")

	start := time.Now()
	transcript, err := l.deps.Transcriber.Transcribe(ctx, path)
	elapsed := time.Since(start)
	metrics.ObserveStage("stt", elapsed)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	l.report(status.KindTranscribed, fmt.Sprintf("Transkripsi selesai dalam %.2f detik.", elapsed.Seconds()))

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return ErrEmptyTranscript
	}
	l.report(status.KindTranscript, transcript)

	if t, ok := persona.MatchTopic(transcript); ok {
		log.Info("topic selected", "topic", t.Title)
		l.session.SetTopic(t)
	}

	start = time.Now()
	answer, err := l.deps.Completer.Complete(ctx, l.session.Messages(ctx, transcript))
	metrics.ObserveStage("llm", time.Since(start))
	if err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	if err := l.session.Record(Exchange{User: transcript, Assistant: answer}); err != nil {
		log.Warn("record exchange", "err", err)
	}

	emotion := persona.DetectEmotion(answer)
	log.Info("answer ready", "emotion", emotion, "answer", answer)
	l.report(status.KindAnswer, answer)

	return l.speak(ctx, answer, emotion)
}

func (l *Loop) capture(ctx context.Context) (string, error) {
	if l.deps.Ducker != nil {
		if err := l.deps.Ducker.Duck(ctx); err != nil {
			log.Warn("duck other streams", "err", err)
		}
		defer func() {
			if err := l.deps.Ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("restore other streams", "err", err)
			}
		}()
	}

	return l.deps.Recorder.CaptureUtterance(ctx, l.cfg.RecordDir, l.cfg.Silence, l.cfg.Sensitivity)
}

func (l *Loop) speak(ctx context.Context, text string, emotion persona.Emotion) error {
	start := time.Now()
	speech, err := l.deps.Synthesizer.Synthesize(ctx, text, emotion)
	metrics.ObserveStage("tts", time.Since(start))
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	start = time.Now()
	err = l.deps.Player.Play(ctx, bytes.NewReader(speech.Audio), speech.Encoding)
	metrics.ObserveStage("playback", time.Since(start))
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Run takes turns until ctx is done or the audio device fails.
func (l *Loop) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := l.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Serve takes one turn per trigger until ctx is done or the audio device
// fails. Triggers that arrive during a turn are coalesced.
func (l *Loop) Serve(ctx context.Context, triggers <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-triggers:
			if err := l.step(ctx); err != nil {
				return err
			}
		}
	}
}

// step runs a turn and returns only errors that should end the loop.
func (l *Loop) step(ctx context.Context) error {
	err := l.Turn(ctx)

	switch {
	case err == nil:
		metrics.CountTurn("ok")
		return nil
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, audio.ErrDevice):
		metrics.CountTurn("device")
		l.report(status.KindError, "Mikrofon tidak tersedia")
		return fmt.Errorf("audio device: %w", err)
	case errors.Is(err, audio.ErrCaptureAborted):
		metrics.CountTurn("aborted")
		log.Info("no utterance captured", "err", err)
	case errors.Is(err, ErrEmptyTranscript):
		metrics.CountTurn("empty")
		log.Info("nothing was said")
	default:
		metrics.CountTurn("failed")
		log.Error("turn failed", "err", err)
		l.report(status.KindError, err.Error())
	}
	return nil
}
