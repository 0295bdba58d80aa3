package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satriahrh/jarvis/server/domain"
)

// Envelope is the JSON shape of every text frame in both directions
type Envelope struct {
	Event domain.EventName `json:"event"`
	Data  json.RawMessage  `json:"data,omitempty"`
}

// InboundMessage is a validated client event
type InboundMessage struct {
	Event domain.EventName

	// Query is set for chat_message. It may be blank; the relay decides.
	Query string

	// Audio is set for audio_stream sent as base64 in a text frame.
	Audio []byte
}

// MessageValidator parses and validates inbound text frames
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming text frame
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (*InboundMessage, error) {
	var envelope Envelope
	if err := json.Unmarshal(messageBytes, &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	if envelope.Event == "" {
		return nil, fmt.Errorf("event is required")
	}

	switch envelope.Event {
	case domain.EventChatMessage:
		query, err := v.parseChatMessage(envelope.Data)
		if err != nil {
			return nil, err
		}
		return &InboundMessage{Event: envelope.Event, Query: query}, nil

	case domain.EventAudioStream:
		audio, err := v.parseAudioStream(envelope.Data)
		if err != nil {
			return nil, err
		}
		return &InboundMessage{Event: envelope.Event, Audio: audio}, nil

	case domain.EventStopStream:
		return &InboundMessage{Event: envelope.Event}, nil

	default:
		return nil, fmt.Errorf("unsupported event: %s", envelope.Event)
	}
}

// parseChatMessage accepts {"message": "..."} or a bare string. A missing
// message is not an error here.
func (v *MessageValidator) parseChatMessage(data json.RawMessage) (string, error) {
	if isAbsent(data) {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}

	var msg domain.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("invalid chat message: %w", err)
	}
	return msg.Message, nil
}

func (v *MessageValidator) parseAudioStream(data json.RawMessage) ([]byte, error) {
	if isAbsent(data) {
		return nil, fmt.Errorf("audio data is required")
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("audio data must be a base64 string: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio data: %w", err)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("audio data is required")
	}
	return audio, nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "" || trimmed == "null"
}

// EncodeEvent builds an outbound text frame
func EncodeEvent(event domain.EventName, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	return json.Marshal(Envelope{Event: event, Data: data})
}
