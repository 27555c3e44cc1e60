package mocks

import (
	"context"
	"sync"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
)

// MockTaskNotifyPublisher implements ports.TaskNotifyPublisher for testing.
// This mock allows us to test notification fan-out without a real
// RabbitMQ connection.
//
// In the hexagonal architecture:
// - ports.TaskNotifyPublisher is the port (interface)
// - RabbitMQBroker is the real adapter (production)
// - MockTaskNotifyPublisher is the test adapter (testing)
type MockTaskNotifyPublisher struct {
	mu sync.RWMutex

	// Track published events for verification
	PublishedEvents []ports.TaskNotifyEvent

	// Error injection for testing error scenarios
	PublishError error

	// Track number of calls
	PublishCallCount int
}

// Ensure MockTaskNotifyPublisher implements ports.TaskNotifyPublisher at compile time.
var _ ports.TaskNotifyPublisher = (*MockTaskNotifyPublisher)(nil)

// NewMockTaskNotifyPublisher creates a new mock publisher.
func NewMockTaskNotifyPublisher() *MockTaskNotifyPublisher {
	return &MockTaskNotifyPublisher{
		PublishedEvents: make([]ports.TaskNotifyEvent, 0),
	}
}

// PublishTaskNotify captures published events for verification.
func (m *MockTaskNotifyPublisher) PublishTaskNotify(ctx context.Context, evt ports.TaskNotifyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCallCount++

	if m.PublishError != nil {
		return m.PublishError
	}

	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

// GetPublishedEvents returns all events that were published.
func (m *MockTaskNotifyPublisher) GetPublishedEvents() []ports.TaskNotifyEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent race conditions
	events := make([]ports.TaskNotifyEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

// GetPublishCount returns the number of times PublishTaskNotify was called.
func (m *MockTaskNotifyPublisher) GetPublishCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PublishCallCount
}

// Reset clears all tracking data.
func (m *MockTaskNotifyPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishedEvents = make([]ports.TaskNotifyEvent, 0)
	m.PublishError = nil
	m.PublishCallCount = 0
}
