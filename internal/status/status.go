// Package status reports what the assistant is doing to the outside world.
package status

import (
	"time"

	log "log/slog"
)

type Kind string

const (
	KindIntro       Kind = "intro"
	KindListening   Kind = "listening"
	KindCaptured    Kind = "captured"
	KindTranscribed Kind = "transcribed"
	KindTranscript  Kind = "transcript"
	KindAnswer      Kind = "answer"
	KindError       Kind = "error"
)

type Event struct {
	Session string    `json:"session"`
	Kind    Kind      `json:"kind"`
	Text    string    `json:"text"`
	Time    time.Time `json:"time"`
}

// Sink must not block the caller for long.
type Sink interface {
	Publish(e Event)
}

type Multi []Sink

func (m Multi) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}

type LogSink struct{}

func (LogSink) Publish(e Event) {
	log.Info(e.Text, "kind", e.Kind, "session", e.Session)
}
