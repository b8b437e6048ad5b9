package vad

import (
	"encoding/binary"
	"fmt"
	"math"
)

// energyThresholds maps sensitivity to the RMS level (full scale = 1.0)
// a chunk must exceed to count as speech.
var energyThresholds = [MaxSensitivity + 1]float64{0.005, 0.010, 0.015, 0.025}

// Energy is a pure-Go RMS classifier. It needs no model or cgo library and
// is the fallback when neither webrtc nor silero is available.
type Energy struct {
	threshold float64
}

func NewEnergy() *Energy {
	return &Energy{threshold: energyThresholds[MaxSensitivity]}
}

func (e *Energy) Configure(_ int, sensitivity int) error {
	if sensitivity < 0 || sensitivity > MaxSensitivity {
		return fmt.Errorf("energy: invalid sensitivity %d", sensitivity)
	}
	e.threshold = energyThresholds[sensitivity]
	return nil
}

func (e *Energy) IsSpeech(chunk []byte) (bool, error) {
	if len(chunk) < 2 {
		return false, nil
	}
	return chunkRMS(chunk) > e.threshold, nil
}

func (e *Energy) Close() error { return nil }

func chunkRMS(chunk []byte) float64 {
	n := len(chunk) / 2
	var s float64
	for i := 0; i < n; i++ {
		x := float64(int16(binary.LittleEndian.Uint16(chunk[2*i:]))) / 32768.0
		s += x * x
	}
	return math.Sqrt(s / float64(n))
}
