package llm

import (
	"context"
	"fmt"

	"github.com/satriahrh/jarvis/server/domain/repositories"
)

// MockLLM is a placeholder reply engine for local development
type MockLLM struct{}

// NewMockLLM creates a new mock reply engine
func NewMockLLM() repositories.LargeLanguageModel {
	return &MockLLM{}
}

// Name implements LargeLanguageModel
func (m *MockLLM) Name() string { return "Mock" }

// Generate implements LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, query string) (string, error) {
	return fmt.Sprintf("Certainly. You said: %q.", query), nil
}
