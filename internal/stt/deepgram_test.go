package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nathan/internal/audio"
)

func writeUtterance(t *testing.T) string {
	t.Helper()
	b, err := audio.EncodeWAV(make([]byte, 3200), audio.DefaultFormat)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "20260102-150405.wav")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// countingTransport records the requests that went through it.
type countingTransport struct {
	n int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n++
	return http.DefaultTransport.RoundTrip(r)
}

func TestDeepgramTranscribe(t *testing.T) {
	path := writeUtterance(t)
	want, _ := os.ReadFile(path)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("language") != "id" || q.Get("model") != "nova-2" || q.Get("smart_format") != "true" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); !strings.EqualFold(got, "token secret") {
			t.Errorf("auth = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) != len(want) {
			t.Errorf("body len = %d, want %d", len(body), len(want))
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":{"channels":[{"alternatives":[{"transcript":" Apa itu peristiwa Rengasdengklok? ","confidence":0.98}]}]}}`)
	}))
	defer srv.Close()

	tr := &countingTransport{}
	d := NewDeepgram(Config{DeepgramKey: "secret", DeepgramURL: srv.URL + "/", HTTPClient: &http.Client{Transport: tr}})
	got, err := d.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Apa itu peristiwa Rengasdengklok?" {
		t.Errorf("transcript = %q", got)
	}
	if tr.n != 1 {
		t.Errorf("shared client carried %d requests, want 1", tr.n)
	}
}

func TestDeepgramErrors(t *testing.T) {
	path := writeUtterance(t)

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"err_msg":"Invalid credentials."}`, "401"},
		{"bad request", http.StatusBadRequest, `{"err_code":"Bad Request","err_msg":"Bad Request: failed to process audio"}`, "failed to process audio"},
		{"no transcript", http.StatusOK, `{"results":{"channels":[]}}`, "no transcript"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			d := NewDeepgram(Config{DeepgramKey: "k", DeepgramURL: srv.URL})
			_, err := d.Transcribe(context.Background(), path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDeepgramMissingKey(t *testing.T) {
	if _, err := NewDeepgram(Config{}).Transcribe(context.Background(), "x.wav"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestLanguageCode(t *testing.T) {
	for in, want := range map[string]string{"": "id-ID", "id": "id-ID", "en-US": "en-US"} {
		if got := languageCode(in); got != want {
			t.Errorf("languageCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadWAVConvertsOtherRates(t *testing.T) {
	pcm := make([]byte, 6400)
	b, err := audio.EncodeWAV(pcm, audio.Format{SampleRate: 32000, Channels: 1, BitDepth: 16, ChunkFrames: 960})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hi.wav")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := readWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if !isTargetWAV(out) {
		t.Fatal("output is not 16 kHz mono")
	}
	if len(out) != 44+3200 {
		t.Errorf("len = %d, want %d", len(out), 44+3200)
	}
}
