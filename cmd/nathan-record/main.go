// Command nathan-record captures a single utterance and prints its path.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"nathan/internal/audio"
	"nathan/internal/config"
	"nathan/internal/vad"
)

func main() {
	cfg, err := config.Load("nathan-record", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(2)
	}

	config.SetupLogging(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := record(ctx, cfg)
	if err != nil {
		log.Error("Capture failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func record(ctx context.Context, cfg *config.Config) (string, error) {
	device := audio.NewPortAudio()
	if err := device.Init(); err != nil {
		return "", err
	}
	defer device.Close()

	classifier, err := vad.NewClassifier(cfg.VAD.Engine, cfg.VAD.SileroModel)
	if err != nil {
		return "", err
	}
	detector := vad.NewCommandDetector(classifier)
	defer detector.Close()

	rec := audio.NewRecorder(device, detector,
		audio.WithMaxDuration(cfg.Audio.MaxDuration),
		audio.WithMinSpeech(cfg.VAD.MinSpeech),
	)

	log.Info("Listening", "silence", cfg.Audio.Silence, "sensitivity", cfg.Audio.Sensitivity)
	return rec.CaptureUtterance(ctx, cfg.Audio.RecordDir, cfg.Audio.Silence, cfg.Audio.Sensitivity)
}
