package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

const (
	timestampLayout = "20060102-150405"
	maxNameAttempts = 1000
)

// createRecording creates a new file named after t. An existing recording is
// never reused; a numeric suffix is added instead.
func createRecording(dir string, t time.Time) (*os.File, error) {
	base := t.Format(timestampLayout)

	for i := 0; i < maxNameAttempts; i++ {
		name := base + ".wav"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.wav", base, i)
		}

		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("no free file name for %s in %s", base, dir)
}

// writeRecording stores pcm as a WAV file in dir and returns its path. On
// failure nothing is left behind.
func writeRecording(dir string, t time.Time, pcm []byte, f Format) (string, error) {
	file, err := createRecording(dir, t)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	path := file.Name()

	werr := writeWAV(file, pcm, f)
	if cerr := file.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, werr)
	}

	return path, nil
}

func writeWAV(ws io.WriteSeeker, pcm []byte, f Format) error {
	enc := wav.NewEncoder(ws, f.SampleRate, f.BitDepth, f.Channels, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
		Data:           PCM16ToInts(pcm),
		SourceBitDepth: f.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	return enc.Close()
}

// EncodeWAV wraps pcm in an in-memory WAV container.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	ws := &writerseeker.WriterSeeker{}
	if err := writeWAV(ws, pcm, f); err != nil {
		return nil, err
	}
	return io.ReadAll(ws.Reader())
}

// PCM16ToInts decodes little-endian 16-bit samples.
func PCM16ToInts(pcm []byte) []int {
	out := make([]int, len(pcm)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return out
}

// Float32ToPCM16 clamps samples to [-1, 1] and encodes them as 16-bit PCM.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*32767)))
	}
	return out
}
