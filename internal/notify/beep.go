package notify

import (
	"context"
	"errors"
	"io/fs"
	"os"

	log "log/slog"

	"nathan/internal/audio"
)

type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// Cue plays the "listening" sound. An empty path or a missing file is
// not an error; the turn goes on silently.
type Cue struct {
	player Player
	path   string
}

func NewCue(p Player, path string) *Cue {
	return &Cue{player: p, path: path}
}

func (c *Cue) Play(ctx context.Context) error {
	if c == nil || c.path == "" {
		return nil
	}

	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		log.Debug("cue file missing", "path", c.path)
		return nil
	}

	return c.player.PlayFile(ctx, c.path)
}

var _ Player = (*audio.Player)(nil)
