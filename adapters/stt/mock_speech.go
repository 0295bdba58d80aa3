package stt

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain/repositories"
)

// MockSpeechToText is a placeholder engine for local development
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text engine
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// Transcribe picks a canned phrase based on how much audio arrived
func (s *MockSpeechToText) Transcribe(ctx context.Context, samples []float32) (string, error) {
	duration := time.Duration(len(samples)) * time.Second / repositories.SampleRate

	s.logger.Info("Processing mock speech-to-text",
		zap.Int("samples", len(samples)),
		zap.Duration("duration", duration))

	switch {
	case len(samples) == 0:
		return "", nil
	case duration > 3*time.Second:
		return "Hello Jarvis, what is the weather like today?", nil
	case duration > 1*time.Second:
		return "Hello Jarvis,", nil
	default:
		return "Hello", nil
	}
}
