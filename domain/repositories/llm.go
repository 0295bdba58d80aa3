package repositories

import "context"

// LargeLanguageModel abstracts any chat/LLM provider used as the reply engine
type LargeLanguageModel interface {
	// Generate takes a user query and returns the model's reply
	Generate(ctx context.Context, query string) (string, error)
	// Name identifies the engine in error reports, e.g. "Gemini"
	Name() string
}
