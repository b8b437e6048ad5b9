// Package audioconv decodes audio files into the 16 kHz mono float32 PCM
// that speech recognizers expect.
package audioconv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// TargetRate is the rate every decoder resamples to.
const TargetRate = 16000

type Kind string

const (
	KindWAV    Kind = "wav"
	KindMP3    Kind = "mp3"
	KindVorbis Kind = "vorbis"
)

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	// MaxSamples truncates the output; zero keeps everything.
	MaxSamples int
}

// DecodeFile picks a decoder from the file extension, falling back to the
// container magic bytes.
func DecodeFile(path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind, err := detect(f, path)
	if err != nil {
		return nil, err
	}

	return Decode(f, kind, opt)
}

func Decode(r io.ReadSeeker, kind Kind, opt Options) ([]float32, error) {
	var (
		x   []float32
		err error
	)
	switch kind {
	case KindWAV:
		x, err = decodeWAV(r)
	case KindMP3:
		x, err = decodeMP3(r)
	case KindVorbis:
		x, err = decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}

	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x, nil
}

func detect(f io.ReadSeeker, path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return KindWAV, nil
	case ".mp3":
		return KindMP3, nil
	case ".ogg", ".oga":
		return KindVorbis, nil
	}

	magic, _ := bufio.NewReader(f).Peek(4)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	switch {
	case string(magic) == "RIFF":
		return KindWAV, nil
	case string(magic) == "OggS":
		return KindVorbis, nil
	case len(magic) >= 3 && string(magic[:3]) == "ID3":
		return KindMP3, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, rate := int(dec.NumChans), int(dec.SampleRate)
	if pb.Format != nil {
		channels, rate = pb.Format.NumChannels, pb.Format.SampleRate
	}

	return toTarget(intsToFloat32(pb.Data, depth), channels, rate), nil
}

// decodeMP3 relies on go-mp3 always producing 16-bit stereo.
func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}

	samples := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, samples); err != nil {
		return nil, err
	}

	return toTarget(int16sToFloat32(samples), 2, dec.SampleRate()), nil
}

func decodeVorbis(r io.Reader) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, errors.New("invalid ogg/vorbis stream")
	}

	return toTarget(pcm, format.Channels, format.SampleRate), nil
}

func toTarget(x []float32, channels, rate int) []float32 {
	if channels > 1 {
		x = Downmix(x, channels)
	}
	if rate <= 0 {
		rate = 44100
	}
	return Resample(x, rate, TargetRate)
}
