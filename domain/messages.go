package domain

// EventName identifies an inbound or outbound transport event
type EventName string

// Inbound events
const (
	EventChatMessage EventName = "chat_message"
	EventAudioStream EventName = "audio_stream"
	EventStopStream  EventName = "stop_stream"
)

// Outbound events
const (
	EventResponse          EventName = "response"
	EventChatReply         EventName = "chat_reply"
	EventPartialTranscript EventName = "partial_transcript"
	EventTranscriptReady   EventName = "transcript_ready"
	EventError             EventName = "error"
)

// ConnectedGreeting is sent in the response event right after connect
const ConnectedGreeting = "Connected to the JARVIS server!"

// FinalTranscriptionFailed is the error text sent when finalization fails
const FinalTranscriptionFailed = "Final transcription failed."

// ResponseMessage is the payload of the response event
type ResponseMessage struct {
	Data string `json:"data"`
}

// ChatMessage is the payload of an inbound chat_message event
type ChatMessage struct {
	Message string `json:"message"`
}

// ChatReplyMessage is the payload of the chat_reply event
type ChatReplyMessage struct {
	Reply string `json:"reply"`
}

// TranscriptMessage is the payload of partial_transcript and transcript_ready
type TranscriptMessage struct {
	Transcript string `json:"transcript"`
}

// ErrorMessage is the payload of the error event
type ErrorMessage struct {
	Error string `json:"error"`
}
