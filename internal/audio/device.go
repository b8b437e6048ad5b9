package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Format describes captured PCM. Samples are signed little-endian integers.
type Format struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	ChunkFrames int
}

// DefaultFormat is 16 kHz, 16-bit, mono in 60 ms chunks.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitDepth: 16, ChunkFrames: 960}

func (f Format) FrameBytes() int {
	return f.Channels * f.BitDepth / 8
}

// Validate checks that f can be captured. Voice detection reads chunks as
// mono 16-bit samples, so other layouts are refused.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.ChunkFrames <= 0 {
		return fmt.Errorf("invalid audio format %+v", f)
	}
	if f.Channels != 1 {
		return fmt.Errorf("unsupported channel count %d, capture is mono", f.Channels)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

// Stream is an open input stream. Read blocks until a full chunk is available.
type Stream interface {
	Start() error
	Read(frames int) ([]byte, error)
	Stop() error
	Close() error
}

type Device interface {
	Open(f Format) (Stream, error)
}

// PortAudio opens the default input device.
type PortAudio struct{}

func NewPortAudio() *PortAudio { return &PortAudio{} }

func (p *PortAudio) Init() error {
	return portaudio.Initialize()
}

func (p *PortAudio) Close() {
	portaudio.Terminate()
}

func (p *PortAudio) Open(f Format) (Stream, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	buf := make([]int16, f.ChunkFrames*f.Channels)
	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), f.ChunkFrames, buf)
	if err != nil {
		return nil, err
	}

	return &paStream{stream: stream, buf: buf, channels: f.Channels, chunkFrames: f.ChunkFrames}, nil
}

type paStream struct {
	stream      *portaudio.Stream
	buf         []int16
	channels    int
	chunkFrames int
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Stop() error  { return s.stream.Stop() }
func (s *paStream) Close() error { return s.stream.Close() }

func (s *paStream) Read(frames int) ([]byte, error) {
	if frames != s.chunkFrames {
		return nil, fmt.Errorf("stream opened for %d frames, asked for %d", s.chunkFrames, frames)
	}
	if err := s.stream.Read(); err != nil {
		return nil, err
	}

	out := make([]byte, len(s.buf)*2)
	for i, v := range s.buf {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out, nil
}
