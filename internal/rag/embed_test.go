package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, requests *[][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth = %q", got)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "text-embedding-3-large" {
			t.Errorf("model = %q", req.Model)
		}
		*requests = append(*requests, req.Input)

		// Answer in reverse order; the index decides the position.
		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Object: "embedding", Index: i, Embedding: []float64{float64(len(req.Input[i])), 0.5}})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedder(t *testing.T) {
	var requests [][]string
	srv := embeddingServer(t, &requests)

	e, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "secret", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	texts := make([]string, embedBatch+4)
	for i := range texts {
		texts[i] = fmt.Sprintf("%*s", i+1, "x")
	}
	got, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}

	if len(requests) != 2 || len(requests[0]) != embedBatch || len(requests[1]) != 4 {
		t.Fatalf("batches = %d", len(requests))
	}
	if len(got) != len(texts) {
		t.Fatalf("got %d vectors", len(got))
	}
	for i, v := range got {
		if len(v) != 2 || v[0] != float32(i+1) || v[1] != 0.5 {
			t.Fatalf("vector %d = %v", i, v)
		}
	}
}

func TestOpenAIEmbedderMissingKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(EmbedderConfig{}); err == nil {
		t.Error("expected error")
	}
}
