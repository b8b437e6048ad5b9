package audio

import "errors"

var (
	// ErrDevice means the input device could not be opened, started or read.
	ErrDevice = errors.New("audio device error")
	// ErrCaptureAborted means no utterance was captured.
	ErrCaptureAborted = errors.New("capture aborted")
	// ErrWrite means the recording could not be written.
	ErrWrite = errors.New("recording write failed")
)
