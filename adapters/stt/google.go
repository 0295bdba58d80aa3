package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/jarvis/server/adapters/audio"
	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/repositories"
)

const (
	defaultGoogleLanguage = "en-US"
	googleEngineName      = "google"
)

// GoogleConfig configures the Google Cloud Speech adapter
type GoogleConfig struct {
	Language        string // Optional: BCP-47 code (default: en-US)
	CredentialsFile string // Optional: falls back to application default credentials
}

// GoogleSpeechToText implements SpeechToText for Google Cloud. The client is
// shared by all sessions; the generated gRPC client is safe for concurrent use.
type GoogleSpeechToText struct {
	client   *speech.Client
	language string
	logger   *zap.Logger
}

// NewGoogleSpeechToText creates a Google Cloud Speech client
func NewGoogleSpeechToText(ctx context.Context, config GoogleConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	language := config.Language
	if language == "" {
		language = defaultGoogleLanguage
	}

	return &GoogleSpeechToText{
		client:   client,
		language: language,
		logger:   logger,
	}, nil
}

// Transcribe implements SpeechToText
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   repositories.SampleRate,
			AudioChannelCount: 1,
			LanguageCode:      g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.Float32ToPCM16(samples),
			},
		},
	})
	if err != nil {
		return "", &domain.TranscriptionError{
			Engine: googleEngineName,
			Err:    fmt.Errorf("recognize: %w", err),
		}
	}

	text := joinResults(resp.GetResults())

	g.logger.Debug("Google transcription completed",
		zap.Int("samples", len(samples)),
		zap.Int("results", len(resp.GetResults())))

	return text, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// joinResults concatenates the best alternative of every result in order
func joinResults(results []*speechpb.SpeechRecognitionResult) string {
	var sb strings.Builder
	for _, result := range results {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		sb.WriteString(result.GetAlternatives()[0].GetTranscript())
	}
	return strings.TrimSpace(sb.String())
}
