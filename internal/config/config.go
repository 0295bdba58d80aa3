package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Providers selectable through STT_PROVIDER and LLM_PROVIDER
const (
	ProviderWhisper = "whisper"
	ProviderGoogle  = "google"
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderMock    = "mock"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Audio    AudioConfig
	STT      STTConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Sentry   SentryConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

// AudioConfig contains decoder configuration
type AudioConfig struct {
	FFmpegPath string
	TempDir    string
}

// STTConfig selects and configures the speech engine
type STTConfig struct {
	Provider              string
	WhisperBaseURL        string
	WhisperAPIKey         string
	WhisperModel          string
	Language              string
	GoogleCredentialsFile string
}

// LLMConfig selects and configures the reply engine
type LLMConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// PipelineConfig tunes the per-session workers
type PipelineConfig struct {
	TranscribeTimeout time.Duration
	ReplyTimeout      time.Duration
	QueueSize         int
	CoalesceChunks    bool
	StatsInterval     time.Duration
}

// SentryConfig enables error reporting when DSN is set
type SentryConfig struct {
	DSN         string
	Environment string
}

// Load reads an optional .env file, then the environment, and validates
// the result. Variables already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	config, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// FromEnv builds a Config from lookup, applying defaults for unset keys
func FromEnv(lookup func(string) string) (*Config, error) {
	p := &envParser{lookup: lookup}

	config := &Config{
		Server: ServerConfig{
			Port: p.lookupInt("PORT", 5002),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(p.lookupString("LOG_LEVEL", "info")),
			Format: strings.ToLower(p.lookupString("LOG_FORMAT", "json")),
		},
		Audio: AudioConfig{
			FFmpegPath: p.lookupString("FFMPEG_PATH", "ffmpeg"),
			TempDir:    p.lookupString("AUDIO_TEMP_DIR", ""),
		},
		STT: STTConfig{
			Provider:              strings.ToLower(p.lookupString("STT_PROVIDER", ProviderWhisper)),
			WhisperBaseURL:        p.lookupString("WHISPER_BASE_URL", ""),
			WhisperAPIKey:         p.lookupString("WHISPER_API_KEY", ""),
			WhisperModel:          p.lookupString("WHISPER_MODEL", ""),
			Language:              p.lookupString("STT_LANGUAGE", ""),
			GoogleCredentialsFile: p.lookupString("GOOGLE_CREDENTIALS_FILE", ""),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(p.lookupString("LLM_PROVIDER", ProviderGemini)),
			GeminiAPIKey:  p.lookupString("GEMINI_API_KEY", ""),
			GeminiModel:   p.lookupString("GEMINI_MODEL", ""),
			OpenAIAPIKey:  p.lookupString("OPENAI_API_KEY", ""),
			OpenAIModel:   p.lookupString("OPENAI_MODEL", ""),
			OpenAIBaseURL: p.lookupString("OPENAI_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			TranscribeTimeout: p.lookupDuration("TRANSCRIBE_TIMEOUT", 30*time.Second),
			ReplyTimeout:      p.lookupDuration("REPLY_TIMEOUT", 60*time.Second),
			QueueSize:         p.lookupInt("SESSION_QUEUE_SIZE", 64),
			CoalesceChunks:    p.lookupBool("COALESCE_CHUNKS", false),
			StatsInterval:     p.lookupDuration("STATS_INTERVAL", 15*time.Second),
		},
		Sentry: SentryConfig{
			DSN:         p.lookupString("SENTRY_DSN", ""),
			Environment: p.lookupString("SENTRY_ENVIRONMENT", "development"),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	return config, nil
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", l.Level)
	}

	switch l.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", l.Format)
	}

	return nil
}

// Validate validates speech engine configuration
func (s *STTConfig) Validate() error {
	switch s.Provider {
	case ProviderWhisper, ProviderGoogle, ProviderMock:
		return nil
	default:
		return fmt.Errorf("STT_PROVIDER must be one of whisper, google, mock, got %q", s.Provider)
	}
}

// Validate validates reply engine configuration
func (l *LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderGemini:
		if l.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if l.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of gemini, openai, mock, got %q", l.Provider)
	}
	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.TranscribeTimeout <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must be positive, got %s", p.TranscribeTimeout)
	}

	if p.ReplyTimeout <= 0 {
		return fmt.Errorf("REPLY_TIMEOUT must be positive, got %s", p.ReplyTimeout)
	}

	if p.QueueSize < 1 {
		return fmt.Errorf("SESSION_QUEUE_SIZE must be at least 1, got %d", p.QueueSize)
	}

	if p.StatsInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive, got %s", p.StatsInterval)
	}

	return nil
}

// envParser reads typed values and keeps the first parse error
type envParser struct {
	lookup func(string) string
	err    error
}

func (p *envParser) lookupString(key, fallback string) string {
	if v := strings.TrimSpace(p.lookup(key)); v != "" {
		return v
	}
	return fallback
}

func (p *envParser) lookupInt(key string, fallback int) int {
	raw := strings.TrimSpace(p.lookup(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *envParser) lookupBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(p.lookup(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

// lookupDuration accepts Go duration strings ("45s") or a bare number of seconds
func (p *envParser) lookupDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(p.lookup(key))
	if raw == "" {
		return fallback
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *envParser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
}
