package status

import (
	"os"
	"path/filepath"

	log "log/slog"
)

// FileSink keeps only the latest status text in a file.
type FileSink struct {
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Publish(e Event) {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".status-*")
	if err != nil {
		log.Warn("status file", "err", err)
		return
	}

	_, werr := tmp.WriteString(e.Text)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), f.path)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		log.Warn("status file", "path", f.path, "err", werr)
	}
}
