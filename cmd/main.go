package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/satriahrh/jarvis/server/adapters"
	"github.com/satriahrh/jarvis/server/adapters/audio"
	"github.com/satriahrh/jarvis/server/adapters/llm"
	"github.com/satriahrh/jarvis/server/adapters/stt"
	"github.com/satriahrh/jarvis/server/domain/repositories"
	"github.com/satriahrh/jarvis/server/internal/api"
	"github.com/satriahrh/jarvis/server/internal/config"
	"github.com/satriahrh/jarvis/server/internal/metrics"
	"github.com/satriahrh/jarvis/server/internal/websocket"
	"github.com/satriahrh/jarvis/server/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn("Sentry initialization failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
			logger.Info("Sentry error reporting enabled")
		}
	}

	ctx := context.Background()

	// Initialize adapters
	decoder, err := audio.NewFFmpegDecoder(audio.FFmpegConfig{
		BinaryPath: cfg.Audio.FFmpegPath,
		TempDir:    cfg.Audio.TempDir,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio decoder", zap.Error(err))
	}

	speechToText, closeSpeech, err := newSpeechToText(ctx, cfg.STT, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech-to-text", zap.Error(err))
	}
	defer closeSpeech()

	replyEngine, err := newReplyEngine(ctx, cfg.LLM, cfg.Pipeline, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reply engine", zap.Error(err))
	}

	store := adapters.NewMemorySessionStore()
	m := metrics.NewMetrics()

	// Initialize usecase services
	transcriptionService := usecase.NewTranscriptionService(store, decoder, speechToText, m, usecase.TranscriptionConfig{
		QueueSize:      cfg.Pipeline.QueueSize,
		Timeout:        cfg.Pipeline.TranscribeTimeout,
		CoalesceChunks: cfg.Pipeline.CoalesceChunks,
	}, logger)
	chatService := usecase.NewChatService(replyEngine, m, cfg.Pipeline.ReplyTimeout, logger)

	hub := websocket.NewHub(transcriptionService, chatService, logger)

	statsService := websocket.NewSessionStatsService(store, m, cfg.Pipeline.StatsInterval, logger)
	statsService.Start()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.HTTPErrorHandler(logger)

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, transcriptionService, m, logger)

	port := strconv.Itoa(cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", port),
		zap.String("stt", cfg.STT.Provider),
		zap.String("llm", replyEngine.Name()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	hub.CloseAll()

	if err := transcriptionService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Transcription workers did not stop in time", zap.Error(err))
	}

	statsService.Stop()

	logger.Info("Server exited")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

func newSpeechToText(ctx context.Context, cfg config.STTConfig, logger *zap.Logger) (repositories.SpeechToText, func(), error) {
	switch cfg.Provider {
	case config.ProviderGoogle:
		google, err := stt.NewGoogleSpeechToText(ctx, stt.GoogleConfig{
			Language:        cfg.Language,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return google, func() {
			if err := google.Close(); err != nil {
				logger.Warn("Failed to close speech client", zap.Error(err))
			}
		}, nil

	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), func() {}, nil

	default:
		whisper := stt.NewWhisperSpeechToText(stt.WhisperConfig{
			BaseURL:  cfg.WhisperBaseURL,
			APIKey:   cfg.WhisperAPIKey,
			Model:    cfg.WhisperModel,
			Language: cfg.Language,
		}, logger)
		return whisper, func() {}, nil
	}
}

func newReplyEngine(ctx context.Context, cfg config.LLMConfig, pipeline config.PipelineConfig, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAILLM(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}, logger)

	case config.ProviderMock:
		return llm.NewMockLLM(), nil

	default:
		return llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			TimeoutSeconds: int(pipeline.ReplyTimeout / time.Second),
		}, logger)
	}
}
