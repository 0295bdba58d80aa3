package adapters

import (
	"fmt"
	"sync"

	"github.com/satriahrh/jarvis/server/domain"
	"github.com/satriahrh/jarvis/server/domain/entities"
	"github.com/satriahrh/jarvis/server/domain/repositories"
)

// MemorySessionStore is an in-memory implementation of SessionStore.
// The map lock only guards create/remove/lookup; buffer access goes through
// each session's own lock.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
}

var _ repositories.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*entities.Session),
	}
}

// OnConnect registers an empty buffer for sessionID
func (m *MemorySessionStore) OnConnect(sessionID string) error {
	session := entities.NewSession(sessionID)
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSession, sessionID)
	}

	m.sessions[sessionID] = session
	return nil
}

// OnDisconnect discards the session; absent sessions are ignored
func (m *MemorySessionStore) OnDisconnect(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// Append adds chunk to the session's buffer
func (m *MemorySessionStore) Append(sessionID string, chunk []byte) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	session.Append(chunk)
	return nil
}

// Snapshot returns a copy of the session's full buffer
func (m *MemorySessionStore) Snapshot(sessionID string) ([]byte, error) {
	session, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	return session.Bytes(), nil
}

// Reset clears the session's buffer, keeping the session registered
func (m *MemorySessionStore) Reset(sessionID string) error {
	session, err := m.get(sessionID)
	if err != nil {
		return err
	}

	session.Reset()
	return nil
}

// Session returns the session entity, mainly for inspection
func (m *MemorySessionStore) Session(sessionID string) (*entities.Session, error) {
	return m.get(sessionID)
}

// Stats implements SessionStore
func (m *MemorySessionStore) Stats() repositories.StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := repositories.StoreStats{Sessions: len(m.sessions)}
	for _, session := range m.sessions {
		stats.BufferedBytes += session.Len()
	}
	return stats
}

func (m *MemorySessionStore) get(sessionID string) (*entities.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSession, sessionID)
	}
	return session, nil
}
