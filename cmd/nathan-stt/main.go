// Command nathan-stt transcribes audio files with the configured backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"nathan/internal/config"
	"nathan/internal/proxy"
	"nathan/internal/stt"
)

func main() {
	cfg, err := config.Load("nathan-stt", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(2)
	}
	if len(cfg.Args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: nathan-stt [flags] file...")
		os.Exit(2)
	}

	config.SetupLogging(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		log.Error("Failed to build http client", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	tr, err := stt.New(ctx, stt.Config{
		Backend:           cfg.STT.Backend,
		Language:          cfg.STT.Language,
		DeepgramKey:       cfg.Secrets.DeepgramKey,
		DeepgramURL:       cfg.STT.DeepgramURL,
		DeepgramModel:     cfg.STT.DeepgramModel,
		GoogleCredentials: cfg.Secrets.GoogleCredentials,
		WhisperModel:      cfg.STT.WhisperModel,
		HTTPClient:        httpClient,
	})
	if err != nil {
		log.Error("Failed to init transcriber", "backend", cfg.STT.Backend, "err", err)
		os.Exit(1)
	}
	if c, ok := tr.(io.Closer); ok {
		defer c.Close()
	}

	failed := false
	for _, path := range cfg.Args {
		text, err := tr.Transcribe(ctx, path)
		if err != nil {
			log.Error("Failed to transcribe", "file", path, "err", err)
			failed = true
			continue
		}
		fmt.Printf("%s\t%s\n", path, text)
	}
	if failed {
		os.Exit(1)
	}
}
