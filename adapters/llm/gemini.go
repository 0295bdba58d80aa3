package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/jarvis/server/domain/repositories"
)

const (
	defaultGeminiModel     = "gemini-2.5-flash"
	defaultTimeoutSeconds  = 30
	defaultMaxRetries      = 3
	defaultMaxOutputTokens = 512
)

// GeminiConfig holds configuration for the Gemini reply engine
type GeminiConfig struct {
	APIKey          string // Required
	Model           string // Optional (default: gemini-2.5-flash)
	BaseURL         string // Optional: overrides the API endpoint
	TimeoutSeconds  int    // Optional: per-request timeout (default: 30)
	MaxRetries      int    // Optional: attempts per query (default: 3)
	MaxOutputTokens int    // Optional (default: 512)
}

// GeminiLLM implements the LargeLanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	timeout         time.Duration
	maxRetries      int
	maxOutputTokens int
}

var _ repositories.LargeLanguageModel = (*GeminiLLM)(nil)

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	if config.MaxRetries < 0 {
		return fmt.Errorf("max retries must be positive, got %d", config.MaxRetries)
	}

	return nil
}

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	logger.Info("Gemini reply engine configured",
		zap.String("model", model),
		zap.Int("maxRetries", maxRetries))

	return &GeminiLLM{
		client:          client,
		logger:          logger,
		model:           model,
		timeout:         time.Duration(timeoutSeconds) * time.Second,
		maxRetries:      maxRetries,
		maxOutputTokens: maxOutputTokens,
	}, nil
}

// Name implements LargeLanguageModel
func (g *GeminiLLM) Name() string { return "Gemini" }

// Generate sends the query framed by the Jarvis persona and returns the reply
func (g *GeminiLLM) Generate(ctx context.Context, query string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(query), genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxOutputTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < g.maxRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	if err != nil {
		return "", err
	}

	reply := extractText(response)
	if reply == "" {
		return "", errors.New("empty response from model")
	}

	return reply, nil
}

// extractText joins the text parts of the first candidate
func extractText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return cleanReply(sb.String())
}
