package store

import (
	"context"
	"sync"
)

// MemoryCartStore keeps cart payloads in process memory
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte // sessionID -> payload
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string][]byte),
	}
}

func (s *MemoryCartStore) Load(_ context.Context, sessionID string) ([]byte, bool, error) {
	if sessionID == "" {
		return nil, false, ErrEmptySessionID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.carts[sessionID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (s *MemoryCartStore) Save(_ context.Context, sessionID string, payload []byte) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// Len returns the number of stored carts
func (s *MemoryCartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}
