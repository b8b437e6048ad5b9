// Command nathan-ingest indexes history PDFs into the vector store that
// grounds Nathan's answers. Documents are given as keyword=file.pdf
// arguments or under rag.docs in the config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"nathan/internal/config"
	"nathan/internal/persona"
	"nathan/internal/proxy"
	"nathan/internal/rag"
)

func main() {
	cfg, err := config.Load("nathan-ingest", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(2)
	}

	config.SetupLogging(os.Stderr, cfg.LogLevel)

	docs, err := documents(cfg.Args, cfg.RAG.Docs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: nathan-ingest [flags] keyword=file.pdf...")
		os.Exit(2)
	}
	if cfg.RAG.Dir == "" {
		log.Error("No vector store directory, set --rag-dir")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		log.Error("Failed to build http client", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	embedder, err := rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		APIKey:     cfg.Secrets.EmbedKey,
		BaseURL:    cfg.RAG.EmbeddingURL,
		Model:      cfg.RAG.EmbeddingModel,
		HTTPClient: httpClient,
	})
	if err != nil {
		log.Error("Failed to init embedder", "err", err)
		os.Exit(1)
	}

	store, err := rag.Open(cfg.RAG.Dir, embedder, cfg.RAG.K)
	if err != nil {
		log.Error("Failed to open vector store", "dir", cfg.RAG.Dir, "err", err)
		os.Exit(1)
	}

	failed := false
	for _, d := range docs {
		n, err := store.IngestPDF(ctx, d.topic.Keyword, d.path)
		if err != nil {
			log.Error("Failed to ingest", "topic", d.topic.Title, "file", d.path, "err", err)
			failed = true
			continue
		}
		log.Info("Ingested", "topic", d.topic.Title, "file", d.path, "chunks", n)
	}
	if failed {
		os.Exit(1)
	}
}

type document struct {
	topic persona.Topic
	path  string
}

// documents resolves keyword=path pairs, falling back to the configured
// ones. Keywords must name a known topic.
func documents(args []string, configured map[string]string) ([]document, error) {
	pairs := make(map[string]string, len(args))
	for _, a := range args {
		keyword, path, ok := strings.Cut(a, "=")
		if !ok || keyword == "" || path == "" {
			return nil, fmt.Errorf("bad document %q, want keyword=file.pdf", a)
		}
		pairs[keyword] = path
	}
	if len(pairs) == 0 {
		pairs = configured
	}
	if len(pairs) == 0 {
		return nil, errors.New("no documents to ingest")
	}

	keywords := make([]string, 0, len(pairs))
	for k := range pairs {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	docs := make([]document, 0, len(pairs))
	for _, k := range keywords {
		topic, ok := persona.MatchTopic(k)
		if !ok {
			return nil, fmt.Errorf("unknown topic %q", k)
		}
		docs = append(docs, document{topic: topic, path: pairs[k]})
	}
	return docs, nil
}
