package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/domain/repositories"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIConfig holds configuration for an OpenAI-compatible chat endpoint
type OpenAIConfig struct {
	APIKey  string // Required
	Model   string // Optional (default: gpt-4o-mini)
	BaseURL string // Optional: any OpenAI-compatible server
}

// OpenAILLM implements LargeLanguageModel using the chat completions API
type OpenAILLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.LargeLanguageModel = (*OpenAILLM)(nil)

// NewOpenAILLM creates a new OpenAI reply engine
func NewOpenAILLM(config OpenAIConfig, logger *zap.Logger) (*OpenAILLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAILLM{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}, nil
}

// Name implements LargeLanguageModel
func (o *OpenAILLM) Name() string { return "OpenAI" }

// Generate implements LargeLanguageModel
func (o *OpenAILLM) Generate(ctx context.Context, query string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: jarvisPersona},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	reply := cleanReply(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("empty response from model")
	}

	o.logger.Debug("OpenAI reply generated",
		zap.String("model", o.model),
		zap.Int("replyLength", len(reply)))

	return reply, nil
}
