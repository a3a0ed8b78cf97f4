package mocks

import (
	"context"
	"sync"
)

// MockCartStore is a mock implementation of store.CartStore for testing
type MockCartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte

	// For tracking calls in tests
	SaveCalls   []SaveCall
	DeleteCalls []string
	LoadErr     error
	SaveErr     error
	DeleteErr   error
}

// SaveCall records parameters passed to Save
type SaveCall struct {
	SessionID string
	Payload   []byte
}

// NewMockCartStore creates a new MockCartStore
func NewMockCartStore() *MockCartStore {
	return &MockCartStore{
		carts:     make(map[string][]byte),
		SaveCalls: make([]SaveCall, 0),
	}
}

func (m *MockCartStore) Load(ctx context.Context, sessionID string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, false, m.LoadErr
	}
	payload, ok := m.carts[sessionID]
	return payload, ok, nil
}

func (m *MockCartStore) Save(ctx context.Context, sessionID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, SaveCall{SessionID: sessionID, Payload: payload})
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.carts[sessionID] = payload
	return nil
}

func (m *MockCartStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, sessionID)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.carts, sessionID)
	return nil
}

// SetPayload stores a payload directly for testing
func (m *MockCartStore) SetPayload(sessionID string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = payload
}

// Payload returns the stored payload for a session
func (m *MockCartStore) Payload(sessionID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.carts[sessionID]
	return payload, ok
}

// Reset clears stored carts and recorded calls
func (m *MockCartStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = make(map[string][]byte)
	m.SaveCalls = make([]SaveCall, 0)
	m.DeleteCalls = nil
	m.LoadErr = nil
	m.SaveErr = nil
	m.DeleteErr = nil
}
