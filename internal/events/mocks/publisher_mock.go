// Package mocks provides test doubles for event publishing.
package mocks

import (
	"context"
	"sync"

	"github.com/example/order-backend/internal/events"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls    []events.Event
	PublishErr      error
	PublishCallback func(ctx context.Context, event events.Event) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{PublishCalls: make([]events.Event, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	m.PublishCalls = append(m.PublishCalls, event)
	callback, err := m.PublishCallback, m.PublishErr
	m.mu.Unlock()

	if callback != nil {
		return callback(ctx, event)
	}
	return err
}

// Last returns the most recently published event, or nil.
func (m *MockPublisher) Last() events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.PublishCalls) == 0 {
		return nil
	}
	return m.PublishCalls[len(m.PublishCalls)-1]
}
