package vad

import (
	"fmt"

	"github.com/maxhawkins/go-webrtcvad"
)

// webrtcFrameMs is the longest frame webrtc VAD accepts.
const webrtcFrameMs = 30

// WebRTC classifies chunks with the WebRTC voice activity detector. The
// sensitivity is used as the VAD aggressiveness mode.
type WebRTC struct {
	vad        *webrtcvad.VAD
	sampleRate int
	frameBytes int
}

func NewWebRTC() (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("webrtc vad: %w", err)
	}
	return &WebRTC{vad: v}, nil
}

func (w *WebRTC) Configure(sampleRate, sensitivity int) error {
	if err := w.vad.SetMode(sensitivity); err != nil {
		return fmt.Errorf("webrtc vad: set mode %d: %w", sensitivity, err)
	}

	frame := sampleRate * webrtcFrameMs / 1000
	if !w.vad.ValidRateAndFrameLength(sampleRate, frame) {
		return fmt.Errorf("webrtc vad: unsupported rate %d", sampleRate)
	}

	w.sampleRate = sampleRate
	w.frameBytes = frame * 2
	return nil
}

// IsSpeech reports whether any 30ms frame of the chunk is voiced. A trailing
// partial frame is ignored.
func (w *WebRTC) IsSpeech(chunk []byte) (bool, error) {
	if w.frameBytes == 0 {
		return false, fmt.Errorf("webrtc vad: not configured")
	}

	for off := 0; off+w.frameBytes <= len(chunk); off += w.frameBytes {
		active, err := w.vad.Process(w.sampleRate, chunk[off:off+w.frameBytes])
		if err != nil {
			return false, fmt.Errorf("webrtc vad: %w", err)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

func (w *WebRTC) Close() error { return nil }
