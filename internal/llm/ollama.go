package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	ollamaURL   = "http://localhost:11434"
	ollamaModel = "gemma3:1b"
)

type Ollama struct {
	client      *api.Client
	model       string
	temperature float64
}

func NewOllama(cfg Config) (*Ollama, error) {
	host := strings.TrimSuffix(cfg.BaseURL, "/")
	if host == "" {
		host = ollamaURL
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	model := cfg.Model
	if model == "" {
		model = ollamaModel
	}

	return &Ollama{client: api.NewClient(u, httpClient), model: model, temperature: cfg.Temperature}, nil
}

func (o *Ollama) Complete(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}

	stream := false
	var answer strings.Builder
	err := o.client.Chat(ctx, &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": o.temperature,
			"num_predict": 200,
		},
	}, func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	content := strings.TrimSpace(answer.String())
	if content == "" {
		return "", ErrEmptyAnswer
	}
	return content, nil
}
