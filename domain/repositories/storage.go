package repositories

// SessionStore maps live session ids to their audio accumulation buffers
type SessionStore interface {
	OnConnect(sessionID string) error
	OnDisconnect(sessionID string)
	Append(sessionID string, chunk []byte) error
	Snapshot(sessionID string) ([]byte, error)
	Reset(sessionID string) error
	Stats() StoreStats
}

// StoreStats summarizes the store for metrics
type StoreStats struct {
	Sessions      int
	BufferedBytes int
}
