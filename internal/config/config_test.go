package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	config, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if config.Server.Port != 5002 {
		t.Errorf("Expected default port 5002, got %d", config.Server.Port)
	}
	if config.STT.Provider != ProviderWhisper {
		t.Errorf("Expected whisper provider, got %s", config.STT.Provider)
	}
	if config.LLM.Provider != ProviderGemini {
		t.Errorf("Expected gemini provider, got %s", config.LLM.Provider)
	}
	if config.Audio.FFmpegPath != "ffmpeg" {
		t.Errorf("Expected ffmpeg from PATH, got %s", config.Audio.FFmpegPath)
	}
	if config.Pipeline.CoalesceChunks {
		t.Error("Expected chunk coalescing off by default")
	}
	if config.Pipeline.TranscribeTimeout != 30*time.Second {
		t.Errorf("Expected 30s transcribe timeout, got %s", config.Pipeline.TranscribeTimeout)
	}
	if config.Pipeline.QueueSize != 64 {
		t.Errorf("Expected queue size 64, got %d", config.Pipeline.QueueSize)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	config, err := FromEnv(envMap(map[string]string{
		"PORT":               "8080",
		"LOG_LEVEL":          "DEBUG",
		"STT_PROVIDER":       "google",
		"LLM_PROVIDER":       "openai",
		"OPENAI_API_KEY":     "sk-test",
		"TRANSCRIBE_TIMEOUT": "45",
		"REPLY_TIMEOUT":      "1m30s",
		"COALESCE_CHUNKS":    "true",
		"SESSION_QUEUE_SIZE": "8",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", config.Server.Port)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected lowercased level, got %s", config.Logging.Level)
	}
	if config.STT.Provider != ProviderGoogle || config.LLM.Provider != ProviderOpenAI {
		t.Errorf("Unexpected providers %s/%s", config.STT.Provider, config.LLM.Provider)
	}
	if config.Pipeline.TranscribeTimeout != 45*time.Second {
		t.Errorf("Expected bare seconds to parse, got %s", config.Pipeline.TranscribeTimeout)
	}
	if config.Pipeline.ReplyTimeout != 90*time.Second {
		t.Errorf("Expected 90s reply timeout, got %s", config.Pipeline.ReplyTimeout)
	}
	if !config.Pipeline.CoalesceChunks {
		t.Error("Expected coalescing enabled")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "PORT", val: "http"},
		{name: "bool", key: "COALESCE_CHUNKS", val: "maybe"},
		{name: "duration", key: "REPLY_TIMEOUT", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(map[string]string{tt.key: tt.val}))
			if err == nil {
				t.Fatal("Expected parse error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "gemini with key",
			env:     map[string]string{"GEMINI_API_KEY": "key"},
			wantErr: false,
		},
		{
			name:    "gemini without key",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "openai without key",
			env:     map[string]string{"LLM_PROVIDER": "openai"},
			wantErr: true,
		},
		{
			name:    "mock engines",
			env:     map[string]string{"LLM_PROVIDER": "mock", "STT_PROVIDER": "mock"},
			wantErr: false,
		},
		{
			name:    "unknown stt provider",
			env:     map[string]string{"LLM_PROVIDER": "mock", "STT_PROVIDER": "vosk"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			env:     map[string]string{"LLM_PROVIDER": "mock", "PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "bad log format",
			env:     map[string]string{"LLM_PROVIDER": "mock", "LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "zero queue",
			env:     map[string]string{"LLM_PROVIDER": "mock", "SESSION_QUEUE_SIZE": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := FromEnv(envMap(tt.env))
			if err != nil {
				t.Fatalf("FromEnv failed: %v", err)
			}

			err = config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "LLM_PROVIDER=mock\nSTT_PROVIDER=mock\nJARVIS_TEST_ONLY=1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("STT_PROVIDER", "")
	os.Unsetenv("LLM_PROVIDER")
	os.Unsetenv("STT_PROVIDER")
	t.Cleanup(func() { os.Unsetenv("JARVIS_TEST_ONLY") })

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.LLM.Provider != ProviderMock || config.STT.Provider != ProviderMock {
		t.Errorf("Expected providers from env file, got %s/%s", config.LLM.Provider, config.STT.Provider)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("Expected missing env file to be ignored, got %v", err)
	}
}
