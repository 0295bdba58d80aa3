package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewOpenAILLM_MissingKey(t *testing.T) {
	if _, err := NewOpenAILLM(OpenAIConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error when API key is not set")
	}
}

func TestOpenAILLM_Generate(t *testing.T) {
	var request struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Right away. "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	engine, err := NewOpenAILLM(OpenAIConfig{
		APIKey:  "test-api-key",
		Model:   "test-model",
		BaseURL: server.URL,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAILLM failed: %v", err)
	}

	reply, err := engine.Generate(context.Background(), "open the pod bay doors")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if reply != "Right away." {
		t.Errorf("Expected trimmed reply, got %q", reply)
	}

	if request.Model != "test-model" {
		t.Errorf("Expected model test-model, got %q", request.Model)
	}

	if len(request.Messages) != 2 || request.Messages[0].Role != "system" || request.Messages[1].Content != "open the pod bay doors" {
		t.Errorf("Unexpected messages: %+v", request.Messages)
	}
}

func TestOpenAILLM_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	engine, err := NewOpenAILLM(OpenAIConfig{APIKey: "k", BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAILLM failed: %v", err)
	}

	if _, err := engine.Generate(context.Background(), "hi"); err == nil {
		t.Error("Expected error for empty choices")
	}
}
