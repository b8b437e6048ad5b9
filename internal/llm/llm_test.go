package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Tentu! Rengasdengklok itu seru, lho.  "}}],
			"usage":{"prompt_tokens":10,"completion_tokens":8,"total_tokens":18}}`)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}

	answer, err := c.Complete(context.Background(), []Message{
		{Role: System, Content: "persona"},
		{Role: User, Content: "halo"},
		{Role: Assistant, Content: "hai"},
		{Role: User, Content: "ceritakan Rengasdengklok"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if answer != "Tentu! Rengasdengklok itu seru, lho." {
		t.Errorf("answer = %q", answer)
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != 0.7 {
		t.Errorf("model=%q temperature=%v", got.Model, got.Temperature)
	}
	roles := []string{"system", "user", "assistant", "user"}
	if len(got.Messages) != len(roles) {
		t.Fatalf("messages = %d", len(got.Messages))
	}
	for i, r := range roles {
		if got.Messages[i].Role != r {
			t.Errorf("message %d role = %q, want %q", i, got.Messages[i].Role, r)
		}
	}
}

func TestOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	}))
	defer srv.Close()

	c, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL + "/", Temperature: 0.7})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Complete(context.Background(), []Message{{Role: User, Content: "x"}}); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("err = %v, want ErrEmptyAnswer", err)
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model    string           `json:"model"`
			Stream   bool             `json:"stream"`
			Messages []map[string]any `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Stream || len(req.Messages) != 2 {
			t.Errorf("stream=%v messages=%d", req.Stream, len(req.Messages))
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"gemma3:1b","created_at":"2026-01-02T15:04:05Z","message":{"role":"assistant","content":" Halo, saya Nathan! "},"done":true}`)
	}))
	defer srv.Close()

	c, err := New(Config{Backend: "ollama", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	answer, err := c.Complete(context.Background(), []Message{{Role: System, Content: "p"}, {Role: User, Content: "halo"}})
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Halo, saya Nathan!" {
		t.Errorf("answer = %q", answer)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "bard"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing openai key")
	}
}
