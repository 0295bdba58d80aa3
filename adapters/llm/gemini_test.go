package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestValidateGeminiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  GeminiConfig
		wantErr bool
	}{
		{"valid", GeminiConfig{APIKey: "key"}, false},
		{"missing api key", GeminiConfig{}, true},
		{"negative timeout", GeminiConfig{APIKey: "key", TimeoutSeconds: -1}, true},
		{"negative retries", GeminiConfig{APIKey: "key", MaxRetries: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeminiConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGeminiConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGeminiLLM_Defaults(t *testing.T) {
	gemini, err := NewGeminiLLM(context.Background(), GeminiConfig{APIKey: "test-api-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGeminiLLM failed: %v", err)
	}

	if gemini.model != defaultGeminiModel {
		t.Errorf("Expected default model %s, got %s", defaultGeminiModel, gemini.model)
	}

	if gemini.maxRetries != defaultMaxRetries {
		t.Errorf("Expected %d retries, got %d", defaultMaxRetries, gemini.maxRetries)
	}

	if gemini.Name() != "Gemini" {
		t.Errorf("Expected name Gemini, got %s", gemini.Name())
	}
}

func TestGeminiLLM_Generate(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		body = buf.String()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  At your service, sir.  "}]}}]}`))
	}))
	defer server.Close()

	gemini, err := NewGeminiLLM(context.Background(), GeminiConfig{
		APIKey:     "test-api-key",
		BaseURL:    server.URL,
		MaxRetries: 1,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGeminiLLM failed: %v", err)
	}

	reply, err := gemini.Generate(context.Background(), "status report")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if reply != "At your service, sir." {
		t.Errorf("Expected trimmed reply, got %q", reply)
	}

	if !strings.Contains(body, "status report") {
		t.Errorf("Expected request to carry the query, got %s", body)
	}
}

func TestGeminiLLM_GenerateFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	gemini, err := NewGeminiLLM(context.Background(), GeminiConfig{
		APIKey:     "test-api-key",
		BaseURL:    server.URL,
		MaxRetries: 1,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGeminiLLM failed: %v", err)
	}

	if _, err := gemini.Generate(context.Background(), "hello"); err == nil {
		t.Error("Expected error from failing endpoint")
	}
}
