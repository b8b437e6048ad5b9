// Package llm asks a chat model for Nathan's answers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Config struct {
	// Backend is openai or ollama.
	Backend     string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

const DefaultTemperature = 0.7

var ErrEmptyAnswer = errors.New("empty answer")

func New(cfg Config) (Completer, error) {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	switch cfg.Backend {
	case "openai", "":
		return NewOpenAI(cfg)
	case "ollama":
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}
