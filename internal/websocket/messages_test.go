package websocket

import (
	"encoding/json"
	"testing"

	"github.com/satriahrh/jarvis/server/domain"
)

func TestMessageValidator_ValidateMessage(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name      string
		message   string
		wantErr   bool
		wantEvent domain.EventName
		wantQuery string
		wantAudio string
	}{
		{
			name:      "chat message object",
			message:   `{"event": "chat_message", "data": {"message": "What time is it?"}}`,
			wantEvent: domain.EventChatMessage,
			wantQuery: "What time is it?",
		},
		{
			name:      "chat message bare string",
			message:   `{"event": "chat_message", "data": "hello"}`,
			wantEvent: domain.EventChatMessage,
			wantQuery: "hello",
		},
		{
			name:      "chat message without data",
			message:   `{"event": "chat_message"}`,
			wantEvent: domain.EventChatMessage,
			wantQuery: "",
		},
		{
			name:      "base64 audio",
			message:   `{"event": "audio_stream", "data": "SGVsbG8gV29ybGQ="}`,
			wantEvent: domain.EventAudioStream,
			wantAudio: "Hello World",
		},
		{
			name:      "stop stream",
			message:   `{"event": "stop_stream"}`,
			wantEvent: domain.EventStopStream,
		},
		{
			name:    "invalid base64",
			message: `{"event": "audio_stream", "data": "not base64!"}`,
			wantErr: true,
		},
		{
			name:    "audio as object",
			message: `{"event": "audio_stream", "data": {"bytes": 1}}`,
			wantErr: true,
		},
		{
			name:    "missing audio",
			message: `{"event": "audio_stream"}`,
			wantErr: true,
		},
		{
			name:    "missing event",
			message: `{"data": "x"}`,
			wantErr: true,
		},
		{
			name:    "unknown event",
			message: `{"event": "listening_start"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			message: `{"event": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if msg.Event != tt.wantEvent {
				t.Errorf("Expected event %s, got %s", tt.wantEvent, msg.Event)
			}
			if msg.Query != tt.wantQuery {
				t.Errorf("Expected query %q, got %q", tt.wantQuery, msg.Query)
			}
			if string(msg.Audio) != tt.wantAudio {
				t.Errorf("Expected audio %q, got %q", tt.wantAudio, msg.Audio)
			}
		})
	}
}

func TestEncodeEvent(t *testing.T) {
	frame, err := EncodeEvent(domain.EventPartialTranscript, domain.TranscriptMessage{Transcript: "hello"})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var decoded struct {
		Event string `json:"event"`
		Data  struct {
			Transcript string `json:"transcript"`
		} `json:"data"`
	}
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("Failed to decode frame %s: %v", frame, err)
	}

	if decoded.Event != "partial_transcript" {
		t.Errorf("Expected partial_transcript, got %s", decoded.Event)
	}
	if decoded.Data.Transcript != "hello" {
		t.Errorf("Expected transcript hello, got %q", decoded.Data.Transcript)
	}
}

func TestEncodeEvent_Greeting(t *testing.T) {
	frame, err := EncodeEvent(domain.EventResponse, domain.ResponseMessage{Data: domain.ConnectedGreeting})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	want := `{"event":"response","data":{"data":"Connected to the JARVIS server!"}}`
	if string(frame) != want {
		t.Errorf("Expected %s, got %s", want, frame)
	}
}
