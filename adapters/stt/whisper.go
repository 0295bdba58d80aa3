package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/adapters/audio"
	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/repositories"
)

const (
	defaultWhisperBaseURL = "http://localhost:8000/v1"
	defaultWhisperModel   = "base.en"
	whisperEngineName     = "whisper"
)

// WhisperConfig configures the whisper adapter. Any server exposing the
// OpenAI /audio/transcriptions API works (faster-whisper-server,
// whisper.cpp server, OpenAI itself).
type WhisperConfig struct {
	BaseURL  string // Optional: API base URL (default: http://localhost:8000/v1)
	APIKey   string // Optional for local servers
	Model    string // Optional: model name (default: base.en)
	Language string // Optional: ISO-639-1 hint, empty lets the engine detect
}

// WhisperSpeechToText implements SpeechToText against a whisper server
type WhisperSpeechToText struct {
	client   *openai.Client
	model    string
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// NewWhisperSpeechToText creates a whisper adapter
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) *WhisperSpeechToText {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultWhisperBaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultWhisperModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimRight(baseURL, "/")

	return &WhisperSpeechToText{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		language: config.Language,
		logger:   logger,
	}
}

// Transcribe implements SpeechToText
func (w *WhisperSpeechToText) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	wav, err := audio.EncodeWAV(samples, repositories.SampleRate)
	if err != nil {
		return "", &domain.TranscriptionError{Engine: whisperEngineName, Err: err}
	}

	response, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(wav),
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", &domain.TranscriptionError{
			Engine: whisperEngineName,
			Err:    fmt.Errorf("create transcription: %w", err),
		}
	}

	text := strings.TrimSpace(response.Text)

	w.logger.Debug("Whisper transcription completed",
		zap.Int("samples", len(samples)),
		zap.Int("textLength", len(text)))

	return text, nil
}
