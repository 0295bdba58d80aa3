package adapters

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/satriahrh/jarvis/server/domain"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	store := NewMemorySessionStore()

	if err := store.OnConnect("s1"); err != nil {
		t.Fatalf("OnConnect failed: %v", err)
	}

	if err := store.Append("s1", []byte("A")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append("s1", []byte("B")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	snapshot, err := store.Snapshot("s1")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if string(snapshot) != "AB" {
		t.Errorf("Expected snapshot AB, got %q", snapshot)
	}

	if err := store.Reset("s1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	snapshot, err = store.Snapshot("s1")
	if err != nil {
		t.Fatalf("Snapshot after reset failed: %v", err)
	}
	if len(snapshot) != 0 {
		t.Errorf("Expected empty buffer after reset, got %d bytes", len(snapshot))
	}

	store.OnDisconnect("s1")

	if _, err := store.Snapshot("s1"); !errors.Is(err, domain.ErrUnknownSession) {
		t.Errorf("Expected ErrUnknownSession after disconnect, got %v", err)
	}
}

func TestMemorySessionStore_DuplicateConnect(t *testing.T) {
	store := NewMemorySessionStore()

	if err := store.OnConnect("s1"); err != nil {
		t.Fatalf("OnConnect failed: %v", err)
	}

	err := store.OnConnect("s1")
	if !errors.Is(err, domain.ErrDuplicateSession) {
		t.Errorf("Expected ErrDuplicateSession, got %v", err)
	}
}

func TestMemorySessionStore_EmptyID(t *testing.T) {
	store := NewMemorySessionStore()

	if err := store.OnConnect(""); err == nil {
		t.Error("Expected error for empty session id")
	}
}

func TestMemorySessionStore_UnknownSession(t *testing.T) {
	store := NewMemorySessionStore()

	if err := store.Append("ghost", []byte("x")); !errors.Is(err, domain.ErrUnknownSession) {
		t.Errorf("Append: expected ErrUnknownSession, got %v", err)
	}

	if err := store.Reset("ghost"); !errors.Is(err, domain.ErrUnknownSession) {
		t.Errorf("Reset: expected ErrUnknownSession, got %v", err)
	}

	// Disconnecting an absent session is a no-op
	store.OnDisconnect("ghost")
}

func TestMemorySessionStore_SnapshotDoesNotMutate(t *testing.T) {
	store := NewMemorySessionStore()
	_ = store.OnConnect("s1")
	_ = store.Append("s1", []byte("abc"))

	first, _ := store.Snapshot("s1")
	first[0] = 'z'

	second, _ := store.Snapshot("s1")
	if string(second) != "abc" {
		t.Errorf("Expected abc, got %q", second)
	}
}

func TestMemorySessionStore_Stats(t *testing.T) {
	store := NewMemorySessionStore()
	_ = store.OnConnect("s1")
	_ = store.OnConnect("s2")
	_ = store.Append("s1", []byte("1234"))
	_ = store.Append("s2", []byte("56"))

	stats := store.Stats()
	if stats.Sessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", stats.Sessions)
	}
	if stats.BufferedBytes != 6 {
		t.Errorf("Expected 6 buffered bytes, got %d", stats.BufferedBytes)
	}
}

func TestMemorySessionStore_ConcurrentSessionsIsolated(t *testing.T) {
	store := NewMemorySessionStore()

	const sessions = 8
	const chunks = 100

	for i := 0; i < sessions; i++ {
		if err := store.OnConnect(fmt.Sprintf("s%d", i)); err != nil {
			t.Fatalf("OnConnect failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < chunks; j++ {
				_ = store.Append(id, []byte{byte('a' + i)})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		snapshot, _ := store.Snapshot(fmt.Sprintf("s%d", i))
		if len(snapshot) != chunks {
			t.Errorf("Session s%d: expected %d bytes, got %d", i, chunks, len(snapshot))
		}
		for _, b := range snapshot {
			if b != byte('a'+i) {
				t.Fatalf("Session s%d contains foreign byte %q", i, b)
			}
		}
	}
}
