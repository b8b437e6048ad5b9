package audio

import log "log/slog"

// State is the lifecycle of a single capture.
type State int

const (
	Idle State = iota
	Listening
	Flushing
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Flushing:
		return "flushing"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func transition(from *State, to State) {
	log.Debug("capture state", "from", *from, "to", to)
	*from = to
}
