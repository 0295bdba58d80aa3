package repositories

import "context"

// SampleRate is the PCM sample rate shared by the decoder and speech engines
const SampleRate = 16000

// SpeechToText abstracts speech recognition engines
type SpeechToText interface {
	// Transcribe converts 16 kHz mono samples normalized to [-1, 1] into text.
	// Zero samples yield an empty string.
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// AudioDecoder turns a complete compressed audio container into PCM samples
type AudioDecoder interface {
	Decode(ctx context.Context, compressed []byte) ([]float32, error)
}
