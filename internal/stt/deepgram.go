package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	"github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

const deepgramModel = "nova-2"

// Deepgram uses the prerecorded listen endpoint through the Deepgram SDK.
type Deepgram struct {
	model    string
	language string
	client   *api.Client
	err      error
}

// NewDeepgram prepares the client. A missing key is reported by Transcribe
// so the other backends stay usable from the same config.
func NewDeepgram(cfg Config) *Deepgram {
	d := &Deepgram{model: cfg.DeepgramModel, language: cfg.Language}
	if d.model == "" {
		d.model = deepgramModel
	}
	if d.language == "" {
		d.language = "id"
	}

	if cfg.DeepgramKey == "" {
		d.err = errors.New("deepgram: missing api key")
		return d
	}

	rc := listen.NewREST(cfg.DeepgramKey, &interfaces.ClientOptions{Host: strings.TrimRight(cfg.DeepgramURL, "/")})
	if rc == nil {
		d.err = errors.New("deepgram: invalid client options")
		return d
	}
	// The SDK builds its own transport; route it through the shared client
	// so the SOCKS proxy and timeout apply.
	if cfg.HTTPClient != nil {
		rc.HTTPClient.Client = *cfg.HTTPClient
	}
	d.client = api.New(rc)
	return d
}

func (d *Deepgram) Transcribe(ctx context.Context, path string) (string, error) {
	if d.err != nil {
		return "", d.err
	}

	body, err := readWAV(path)
	if err != nil {
		return "", fmt.Errorf("deepgram: %w", err)
	}

	res, err := d.client.FromStream(ctx, bytes.NewReader(body), &interfaces.PreRecordedTranscriptionOptions{
		Language:    d.language,
		Model:       d.model,
		SmartFormat: true,
	})
	if err != nil {
		return "", fmt.Errorf("deepgram: %w", err)
	}

	if res.Results == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", errors.New("deepgram: no transcript in response")
	}

	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}
