package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	pcm := Float32ToPCM16([]float32{0, 0.5, -0.5, 1.5, -2})

	b, err := EncodeWAV(pcm, DefaultFormat)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 44+len(pcm) {
		t.Fatalf("len = %d", len(b))
	}

	d := wav.NewDecoder(bytes.NewReader(b))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}

	want := []int{0, 16383, -16383, 32767, -32767}
	for i, v := range want {
		if buf.Data[i] != v {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestCreateRecordingSuffixes(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

	var names []string
	for i := 0; i < 3; i++ {
		f, err := createRecording(dir, ts)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, filepath.Base(f.Name()))
		f.Close()
	}

	want := []string{"20260304-050607.wav", "20260304-050607-1.wav", "20260304-050607-2.wav"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestWriteRecordingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	_, err := writeRecording(dir, time.Now(), []byte{1, 0}, DefaultFormat)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Errorf("directory created unexpectedly: %v", statErr)
	}
}
