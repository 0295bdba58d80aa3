package entities

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// SessionState represents where a session is in its utterance lifecycle
type SessionState string

const (
	SessionStateIdle         SessionState = "idle"
	SessionStateAccumulating SessionState = "accumulating"
)

// Session holds the server-side state of one open client connection: the
// audio accumulated for the utterance in progress.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	buffer      bytes.Buffer
	lastChunkAt time.Time
	chunkCount  int
	utterances  int
}

// NewSession creates an idle session
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
}

// Append adds a chunk to the end of the buffer
func (s *Session) Append(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Write(chunk)
	s.chunkCount++
	s.lastChunkAt = time.Now()
}

// Bytes returns a copy of the full buffer contents
func (s *Session) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, s.buffer.Len())
	copy(out, s.buffer.Bytes())
	return out
}

// Len returns the number of buffered bytes
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Len()
}

// Reset clears the buffer in place and closes the current utterance
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Reset()
	s.chunkCount = 0
	s.utterances++
}

// State reports Idle when nothing is buffered, Accumulating otherwise
func (s *Session) State() SessionState {
	if s.Len() == 0 {
		return SessionStateIdle
	}
	return SessionStateAccumulating
}

// ChunkCount returns the number of chunks appended since the last reset
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkCount
}

// Utterances returns how many utterances have been finalized on this session
func (s *Session) Utterances() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.utterances
}

// LastChunkAt returns when the last chunk was appended, zero if never
func (s *Session) LastChunkAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChunkAt
}

// Validate validates the session data
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	return nil
}
