// Package config assembles the daemon configuration from defaults, an
// optional YAML file, flags and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel    string `yaml:"log_level"`
	Proxy       string `yaml:"proxy"`
	MetricsAddr string `yaml:"metrics_addr"`

	Audio   AudioConfig   `yaml:"audio"`
	VAD     VADConfig     `yaml:"vad"`
	STT     STTConfig     `yaml:"stt"`
	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Files   FilesConfig   `yaml:"files"`
	Control ControlConfig `yaml:"control"`
	Hub     HubConfig     `yaml:"hub"`
	RAG     RAGConfig     `yaml:"rag"`

	Secrets Secrets `yaml:"-"`

	EnvFile    string   `yaml:"-"`
	ConfigFile string   `yaml:"-"`
	Args       []string `yaml:"-"`
}

type AudioConfig struct {
	RecordDir      string        `yaml:"record_dir"`
	Silence        time.Duration `yaml:"silence"`
	Sensitivity    int           `yaml:"sensitivity"`
	MaxDuration    time.Duration `yaml:"max_duration"`
	KeepRecordings bool          `yaml:"keep_recordings"`
	CueFile        string        `yaml:"cue_file"`
	// Duck lowers other applications while listening.
	Duck       bool    `yaml:"duck"`
	DuckFactor float64 `yaml:"duck_factor"`
}

type VADConfig struct {
	// Engine is webrtc, silero or energy.
	Engine      string        `yaml:"engine"`
	SileroModel string        `yaml:"silero_model"`
	MinSpeech   time.Duration `yaml:"min_speech"`
}

type STTConfig struct {
	Backend       string `yaml:"backend"`
	Language      string `yaml:"language"`
	DeepgramURL   string `yaml:"deepgram_url"`
	DeepgramModel string `yaml:"deepgram_model"`
	WhisperModel  string `yaml:"whisper_model"`
}

type LLMConfig struct {
	Backend     string  `yaml:"backend"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	History     int     `yaml:"history"`
}

type TTSConfig struct {
	Backend         string `yaml:"backend"`
	Language        string `yaml:"language"`
	Voice           string `yaml:"voice"`
	ElevenLabsModel string `yaml:"elevenlabs_model"`
}

type FilesConfig struct {
	Status  string `yaml:"status"`
	History string `yaml:"history"`
}

type ControlConfig struct {
	// Mode is continuous or trigger.
	Mode   string `yaml:"mode"`
	Socket string `yaml:"socket"`
	Intro  bool   `yaml:"intro"`
}

type HubConfig struct {
	URL   string `yaml:"url"`
	Shard string `yaml:"shard"`
}

type RAGConfig struct {
	// Dir holds the vector store. Retrieval is off when it is empty.
	Dir            string `yaml:"dir"`
	K              int    `yaml:"k"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingURL   string `yaml:"embedding_url"`
	// Docs maps a topic keyword to the PDF ingested for it.
	Docs map[string]string `yaml:"docs"`
}

// Secrets only ever come from the environment.
type Secrets struct {
	DeepgramKey       string
	LLMKey            string
	ElevenLabsKey     string
	GoogleCredentials string
	EmbedKey          string
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			RecordDir:   "audio",
			Silence:     4 * time.Second,
			Sensitivity: 3,
			MaxDuration: 30 * time.Second,
			CueFile:     "beep.mp3",
			DuckFactor:  0.2,
		},
		VAD: VADConfig{
			Engine:    "webrtc",
			MinSpeech: 300 * time.Millisecond,
		},
		STT: STTConfig{Backend: "deepgram", Language: "id"},
		LLM: LLMConfig{Backend: "openai", Temperature: 0.7, History: 6},
		TTS: TTSConfig{Backend: "google", Language: "id-ID"},
		Files: FilesConfig{
			Status:  "status.txt",
			History: "conversation_history.txt",
		},
		Control: ControlConfig{Mode: "continuous", Socket: "/tmp/nathan.sock", Intro: true},
		Hub:     HubConfig{Shard: "nathan"},
		RAG:     RAGConfig{Dir: "rag_db", K: 5, EmbeddingModel: "text-embedding-3-large"},
		EnvFile: ".env",
	}
}

func bind(flags *cli.FlagSet, c *Config) {
	flags.StringVarP(&c.EnvFile, "env", "e", c.EnvFile, "Env file path")
	flags.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "YAML config file")
	flags.StringVarP(&c.LogLevel, "log", "l", c.LogLevel, "Log level")
	flags.StringVarP(&c.Proxy, "proxy", "p", c.Proxy, "Socks proxy address for API calls")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address")

	flags.StringVarP(&c.Audio.RecordDir, "out", "o", c.Audio.RecordDir, "Directory for recorded utterances")
	flags.DurationVarP(&c.Audio.Silence, "silence", "s", c.Audio.Silence, "Trailing silence that ends an utterance")
	flags.IntVar(&c.Audio.Sensitivity, "sensitivity", c.Audio.Sensitivity, "VAD sensitivity 0-3")
	flags.DurationVar(&c.Audio.MaxDuration, "max-duration", c.Audio.MaxDuration, "Longest single capture")
	flags.BoolVar(&c.Audio.KeepRecordings, "keep", c.Audio.KeepRecordings, "Keep recordings after transcription")
	flags.StringVar(&c.Audio.CueFile, "cue", c.Audio.CueFile, "Sound played before listening")
	flags.BoolVar(&c.Audio.Duck, "duck", c.Audio.Duck, "Lower other applications while listening")

	flags.StringVar(&c.VAD.Engine, "vad", c.VAD.Engine, "VAD engine: webrtc, silero or energy")
	flags.StringVar(&c.VAD.SileroModel, "silero-model", c.VAD.SileroModel, "Silero ONNX model path")

	flags.StringVar(&c.STT.Backend, "stt", c.STT.Backend, "Transcription backend: deepgram, google or whisper")
	flags.StringVar(&c.STT.WhisperModel, "whisper-model", c.STT.WhisperModel, "whisper.cpp model path")

	flags.StringVar(&c.LLM.Backend, "llm", c.LLM.Backend, "Chat backend: openai or ollama")
	flags.StringVar(&c.LLM.Model, "model", c.LLM.Model, "Chat model, backend default when empty")
	flags.StringVar(&c.LLM.BaseURL, "llm-url", c.LLM.BaseURL, "Chat API base URL")

	flags.StringVar(&c.TTS.Backend, "tts", c.TTS.Backend, "Speech backend: google or elevenlabs")
	flags.StringVar(&c.TTS.Voice, "voice", c.TTS.Voice, "Voice name or id")

	flags.StringVarP(&c.Control.Mode, "mode", "m", c.Control.Mode, "continuous or trigger")
	flags.StringVar(&c.Control.Socket, "socket", c.Control.Socket, "Control socket path")
	flags.BoolVar(&c.Control.Intro, "intro", c.Control.Intro, "Greet on start")

	flags.StringVar(&c.RAG.Dir, "rag-dir", c.RAG.Dir, "Vector store directory, empty disables retrieval")
	flags.IntVar(&c.RAG.K, "rag-k", c.RAG.K, "Passages retrieved per question")

	flags.StringVarP(&c.Hub.URL, "url", "u", c.Hub.URL, "Websocket url of hub")
}

// Load parses args (without the program name). Precedence is defaults,
// then the YAML file, then flags.
func Load(name string, args []string) (*Config, error) {
	early := Default()
	pre := cli.NewFlagSet(name, cli.ContinueOnError)
	pre.Usage = func() {}
	bind(pre, &early)
	// errors are reported by the second pass, with usage
	_ = pre.Parse(args)

	cfg := Default()
	if early.ConfigFile != "" {
		if err := cfg.overlay(early.ConfigFile); err != nil {
			return nil, err
		}
	}

	flags := cli.NewFlagSet(name, cli.ContinueOnError)
	bind(flags, &cfg)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = flags.Args()

	if err := cfg.loadEnv(flags.Changed("env")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnv reads the env file, which may be missing unless it was named
// explicitly, and picks up the secrets.
func (c *Config) loadEnv(explicit bool) error {
	if c.EnvFile != "" {
		err := godotenv.Load(c.EnvFile)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load env %s: %w", c.EnvFile, err)
		}
	}

	c.Secrets = Secrets{
		DeepgramKey:       os.Getenv("DEEPGRAM_API_KEY"),
		LLMKey:            os.Getenv("LLM_API_KEY"),
		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		EmbedKey:          os.Getenv("EMBED_API_KEY"),
	}
	if c.Secrets.LLMKey == "" {
		c.Secrets.LLMKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Secrets.EmbedKey == "" {
		c.Secrets.EmbedKey = c.Secrets.LLMKey
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Audio.RecordDir == "" {
		return errors.New("record dir cannot be empty")
	}
	if c.Audio.Silence <= 0 {
		return fmt.Errorf("silence must be positive, got %s", c.Audio.Silence)
	}
	if c.Audio.Sensitivity < 0 || c.Audio.Sensitivity > 3 {
		return fmt.Errorf("sensitivity must be between 0 and 3, got %d", c.Audio.Sensitivity)
	}
	if c.Audio.MaxDuration < 0 {
		return fmt.Errorf("max duration cannot be negative")
	}
	if c.Audio.DuckFactor < 0 || c.Audio.DuckFactor > 1 {
		return fmt.Errorf("duck factor must be between 0 and 1, got %g", c.Audio.DuckFactor)
	}

	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"vad engine", c.VAD.Engine, []string{"webrtc", "silero", "energy"}},
		{"stt backend", c.STT.Backend, []string{"deepgram", "google", "whisper"}},
		{"llm backend", c.LLM.Backend, []string{"openai", "ollama"}},
		{"tts backend", c.TTS.Backend, []string{"google", "elevenlabs"}},
		{"mode", c.Control.Mode, []string{"continuous", "trigger"}},
		{"log level", c.LogLevel, []string{"debug", "info", "warn", "error"}},
	}
	for _, ch := range checks {
		if !oneOf(ch.value, ch.allowed) {
			return fmt.Errorf("%s must be one of %v, got %q", ch.name, ch.allowed, ch.value)
		}
	}

	if c.VAD.Engine == "silero" && c.VAD.SileroModel == "" {
		return errors.New("silero engine needs --silero-model")
	}
	if c.STT.Backend == "whisper" && c.STT.WhisperModel == "" {
		return errors.New("whisper backend needs --whisper-model")
	}
	if c.RAG.Dir != "" && c.RAG.K < 1 {
		return fmt.Errorf("rag k must be at least 1, got %d", c.RAG.K)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
