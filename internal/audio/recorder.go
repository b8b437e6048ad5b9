package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	log "log/slog"

	"nathan/internal/metrics"
	"nathan/internal/vad"
)

// Recorder captures one spoken utterance per call into a WAV file.
type Recorder struct {
	device      Device
	detector    vad.Detector
	format      Format
	maxDuration time.Duration
	minSpeech   time.Duration
	now         func() time.Time

	// mu is held for the whole capture; the device is exclusive.
	mu sync.Mutex
}

type Option func(*Recorder)

func WithFormat(f Format) Option {
	return func(r *Recorder) { r.format = f }
}

// WithClock overrides the clock used to name recordings.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithMaxDuration caps how long a single capture may listen.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) { r.maxDuration = d }
}

// WithMinSpeech sets how much speech confirms that a command started.
func WithMinSpeech(d time.Duration) Option {
	return func(r *Recorder) { r.minSpeech = d }
}

func NewRecorder(device Device, detector vad.Detector, opts ...Option) *Recorder {
	r := &Recorder{
		device:      device,
		detector:    detector,
		format:      DefaultFormat,
		maxDuration: vad.DefaultOptions().MaxDuration,
		now:         time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Recorder) Format() Format { return r.format }

// CaptureUtterance listens until the detector reports a finished command and
// writes it to outputDir as <timestamp>.wav. It returns the file path.
//
// The returned error wraps ErrDevice, ErrCaptureAborted or ErrWrite. A
// canceled ctx aborts the capture and the error also matches ctx.Err().
func (r *Recorder) CaptureUtterance(ctx context.Context, outputDir string, silence time.Duration, sensitivity int) (string, error) {
	if !r.mu.TryLock() {
		return "", fmt.Errorf("%w: capture already in progress", ErrDevice)
	}
	defer r.mu.Unlock()

	start := time.Now()
	path, err := r.capture(ctx, outputDir, silence, sensitivity)
	metrics.ObserveCapture(captureOutcome(err), time.Since(start))

	return path, err
}

type listenResult struct {
	pcm []byte
	err error
}

func (r *Recorder) capture(ctx context.Context, outputDir string, silence time.Duration, sensitivity int) (string, error) {
	state := Idle

	if err := r.format.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDevice, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrWrite, outputDir, err)
	}

	session, err := r.detector.NewSession(vad.Options{
		SampleRate:  r.format.SampleRate,
		Sensitivity: sensitivity,
		Silence:     silence,
		MinSpeech:   r.minSpeech,
		MaxDuration: r.maxDuration,
	})
	if err != nil {
		return "", fmt.Errorf("%w: vad session: %w", ErrCaptureAborted, err)
	}

	stream, err := r.device.Open(r.format)
	if err != nil {
		return "", fmt.Errorf("%w: open: %w", ErrDevice, err)
	}

	// Stop unblocks a pending Read; Close must wait until the reader is gone.
	var stopOnce, closeOnce sync.Once
	stopStream := func() {
		stopOnce.Do(func() {
			if err := stream.Stop(); err != nil {
				log.Warn("stop input stream", "err", err)
			}
		})
	}
	closeStream := func() {
		closeOnce.Do(func() {
			if err := stream.Close(); err != nil {
				log.Warn("close input stream", "err", err)
			}
		})
	}
	defer closeStream()
	defer stopStream()

	if err := stream.Start(); err != nil {
		return "", fmt.Errorf("%w: start: %w", ErrDevice, err)
	}
	if err := session.Start(); err != nil {
		return "", fmt.Errorf("%w: vad start: %w", ErrCaptureAborted, err)
	}
	transition(&state, Listening)

	done := make(chan listenResult, 1)
	go func() {
		pcm, err := r.listen(ctx, session, stream)
		done <- listenResult{pcm: pcm, err: err}
	}()

	var res listenResult
	select {
	case res = <-done:
	case <-ctx.Done():
		stopStream()
		<-done
		closeStream()
		session.Stop()
		transition(&state, Aborted)
		return "", fmt.Errorf("%w: %w", ErrCaptureAborted, ctx.Err())
	}

	if res.err != nil {
		session.Stop()
		transition(&state, Aborted)
		return "", res.err
	}

	stopStream()
	closeStream()
	transition(&state, Flushing)

	if len(res.pcm) == 0 {
		transition(&state, Aborted)
		return "", fmt.Errorf("%w: empty utterance", ErrCaptureAborted)
	}

	path, err := writeRecording(outputDir, r.now(), res.pcm, r.format)
	if err != nil {
		transition(&state, Aborted)
		return "", err
	}

	transition(&state, Done)
	log.Debug("utterance recorded", "path", path, "bytes", len(res.pcm))

	return path, nil
}

// listen feeds chunks to the session until it reaches a verdict.
func (r *Recorder) listen(ctx context.Context, session vad.Session, stream Stream) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCaptureAborted, err)
		}

		chunk, err := stream.Read(r.format.ChunkFrames)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %w", ErrDevice, err)
		}

		verdict, err := session.Process(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: vad: %w", ErrCaptureAborted, err)
		}

		switch verdict {
		case vad.Complete:
			return session.Stop(), nil
		case vad.Failed:
			return nil, fmt.Errorf("%w: no utterance detected", ErrCaptureAborted)
		}
	}
}

func captureOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrDevice):
		return "device"
	case errors.Is(err, ErrWrite):
		return "write"
	default:
		return "aborted"
	}
}
