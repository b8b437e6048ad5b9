package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"nathan/internal/audio"
	"nathan/internal/persona"
)

type Google struct {
	client   *texttospeech.Client
	language string
	voice    string
}

func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	var opts []option.ClientOption
	if cfg.GoogleCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google tts client: %w", err)
	}

	lang := cfg.Language
	if lang == "" {
		lang = "id-ID"
	}

	return &Google{client: client, language: lang, voice: cfg.Voice}, nil
}

func (g *Google) Close() error {
	return g.client.Close()
}

func (g *Google) Synthesize(ctx context.Context, text string, emotion persona.Emotion) (Speech, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, synthesisRequest(text, emotion, g.language, g.voice))
	if err != nil {
		return Speech{}, fmt.Errorf("google synthesize: %w", err)
	}

	return Speech{Audio: resp.GetAudioContent(), Encoding: audio.MP3}, nil
}

func synthesisRequest(text string, emotion persona.Emotion, language, voice string) *texttospeechpb.SynthesizeSpeechRequest {
	p := emotion.Prosody()

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Ssml{Ssml: ToSSML(text)},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_MALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			Pitch:         p.Pitch,
			SpeakingRate:  p.SpeakingRate,
		},
	}
}
