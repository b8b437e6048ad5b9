package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"nathan/internal/audio"
	"nathan/internal/config"
	"nathan/internal/conversation"
	"nathan/internal/ipc"
	"nathan/internal/llm"
	"nathan/internal/metrics"
	"nathan/internal/notify"
	"nathan/internal/persona"
	"nathan/internal/proxy"
	"nathan/internal/rag"
	"nathan/internal/status"
	"nathan/internal/stt"
	"nathan/internal/tts"
	"nathan/internal/vad"
)

func main() {
	cfg, err := config.Load("nathan", os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(2)
	}

	config.SetupLogging(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Nathan stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Info("Booting up", "mode", cfg.Control.Mode, "vad", cfg.VAD.Engine)

	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return err
	}
	proxy.SetDefault(httpClient)

	device := audio.NewPortAudio()
	if err := device.Init(); err != nil {
		return err
	}
	defer device.Close()

	classifier, err := vad.NewClassifier(cfg.VAD.Engine, cfg.VAD.SileroModel)
	if err != nil {
		return err
	}
	detector := vad.NewCommandDetector(classifier)
	defer detector.Close()

	recorder := audio.NewRecorder(device, detector,
		audio.WithMaxDuration(cfg.Audio.MaxDuration),
		audio.WithMinSpeech(cfg.VAD.MinSpeech),
	)

	log.Debug("Loaded recorder")

	transcriber, err := stt.New(ctx, stt.Config{
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
		return err
	}
	defer closeIfCloser(transcriber)

	completer, err := llm.New(llm.Config{
		Backend:     cfg.LLM.Backend,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.Secrets.LLMKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return err
	}

	synthesizer, err := tts.New(ctx, tts.Config{
		Backend:           cfg.TTS.Backend,
		Language:          cfg.TTS.Language,
		Voice:             cfg.TTS.Voice,
		GoogleCredentials: cfg.Secrets.GoogleCredentials,
		ElevenLabsKey:     cfg.Secrets.ElevenLabsKey,
		ElevenLabsModel:   cfg.TTS.ElevenLabsModel,
		HTTPClient:        httpClient,
	})
	if err != nil {
		return err
	}
	defer closeIfCloser(synthesizer)

	log.Debug("Loaded backends", "stt", cfg.STT.Backend, "llm", cfg.LLM.Backend, "tts", cfg.TTS.Backend)

	session, err := conversation.NewSession(persona.SystemPrompt, cfg.LLM.History, cfg.Files.History)
	if err != nil {
		return err
	}

	switch _, statErr := os.Stat(cfg.RAG.Dir); {
	case cfg.RAG.Dir == "" || statErr != nil:
		log.Info("Retrieval disabled, no vector store", "dir", cfg.RAG.Dir)
	case cfg.Secrets.EmbedKey == "":
		log.Warn("Retrieval disabled, missing embeddings key")
	default:
		embedder, err := rag.NewOpenAIEmbedder(rag.EmbedderConfig{
			APIKey:     cfg.Secrets.EmbedKey,
			BaseURL:    cfg.RAG.EmbeddingURL,
			Model:      cfg.RAG.EmbeddingModel,
			HTTPClient: httpClient,
		})
		if err != nil {
			return err
		}
		store, err := rag.Open(cfg.RAG.Dir, embedder, cfg.RAG.K)
		if err != nil {
			return err
		}
		session.SetRetriever(store)
		log.Debug("Loaded vector store", "dir", cfg.RAG.Dir, "k", cfg.RAG.K)
	}

	triggers := make(chan struct{}, 1)
	control := func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case ipc.CmdTrigger:
			select {
			case triggers <- struct{}{}:
			default:
			}
		case ipc.CmdReset:
			if err := session.Reset(); err != nil {
				log.Warn("Failed to reset history", "err", err)
			}
			log.Info("History cleared", "from", msg.From)
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd, "from", msg.From)
		}
	}

	sinks := status.Multi{status.LogSink{}}
	if cfg.Files.Status != "" {
		sinks = append(sinks, status.NewFileSink(cfg.Files.Status))
	}
	if cfg.Hub.URL != "" {
		hub := status.NewHub(status.HubConfig{
			URL:       cfg.Hub.URL,
			Shard:     cfg.Hub.Shard,
			OnCommand: control,
		})
		sinks = append(sinks, hub)
		go hub.Run(ctx)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	server, err := ipc.Listen(cfg.Control.Socket, control)
	if err != nil {
		return err
	}
	go server.Serve(ctx)

	player := audio.NewPlayer()

	var ducker conversation.Ducker
	if cfg.Audio.Duck {
		ducker = audio.NewDucker(audio.DuckerConfig{
			Self:   []string{"nathan"},
			Factor: cfg.Audio.DuckFactor,
			Floor:  10,
			Fade:   300 * time.Millisecond,
		})
	}

	loop := conversation.NewLoop(conversation.Config{
		RecordDir:      filepath.Clean(cfg.Audio.RecordDir),
		Silence:        cfg.Audio.Silence,
		Sensitivity:    cfg.Audio.Sensitivity,
		KeepRecordings: cfg.Audio.KeepRecordings,
	}, session, conversation.Deps{
		Recorder:    recorder,
		Transcriber: transcriber,
		Completer:   completer,
		Synthesizer: synthesizer,
		Player:      player,
		Cue:         notify.NewCue(player, cfg.Audio.CueFile),
		Ducker:      ducker,
		Status:      sinks,
	})

	log.Info("Boot up - successful", "session", session.ID)

	if cfg.Control.Intro {
		if err := loop.Intro(ctx); err != nil && ctx.Err() == nil {
			log.Warn("Intro failed", "err", err)
		}
	}

	if cfg.Control.Mode == "trigger" {
		return loop.Serve(ctx, triggers)
	}
	return loop.Run(ctx)
}

func closeIfCloser(v any) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("Close failed", "err", err)
		}
	}
}
