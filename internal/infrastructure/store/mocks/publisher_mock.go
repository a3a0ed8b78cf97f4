package mocks

import (
	"context"
	"sync"

	"github.com/example/printshop/internal/infrastructure/store"
)

// MockPublisher records published events instead of sending them to a broker
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: event})
	return m.PublishErr
}

// EventTypes returns the event types of every published store.Event, in order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.PublishCalls))
	for _, call := range m.PublishCalls {
		if e, ok := call.Event.(store.Event); ok {
			types = append(types, e.EventType)
		}
	}
	return types
}
