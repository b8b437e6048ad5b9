package ipc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Frame is a hub line "TO:VERB:NOUN[:ARG...]:FROM".
type Frame struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func ParseFrame(line string) (Frame, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Frame{}, errors.New("empty frame")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return Frame{}, errors.New("invalid whitespace present")
	}

	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return Frame{}, fmt.Errorf("too few fields: got %d, want >= 4", len(parts))
	}

	for i, p := range parts {
		if !tokenRe.MatchString(p) {
			return Frame{}, fmt.Errorf("invalid token %d: %q", i, p)
		}
	}

	return Frame{
		To:   parts[0],
		Verb: strings.ToUpper(parts[1]),
		Noun: strings.ToUpper(parts[2]),
		Args: append([]string(nil), parts[3:len(parts)-1]...),
		From: parts[len(parts)-1],
	}, nil
}

func (f Frame) String() string {
	parts := append([]string{f.To, f.Verb, f.Noun}, f.Args...)
	return strings.Join(append(parts, f.From), ":")
}

// For reports whether the frame is addressed to shard.
func (f Frame) For(shard string) bool {
	return f.To == shard || f.To == "ALL"
}

// Control maps a hub frame onto a daemon command.
func (f Frame) Control() (ControlMessage, bool) {
	switch {
	case f.Verb == "TRIGGER" && f.Noun == "TURN":
		return ControlMessage{Cmd: CmdTrigger, From: f.From}, true
	case f.Verb == "RESET" && f.Noun == "HISTORY":
		return ControlMessage{Cmd: CmdReset, From: f.From}, true
	default:
		return ControlMessage{}, false
	}
}
