package mqtt

import (
	"sync"

	"github.com/kilianp07/raildispatch/core/model"
	"github.com/kilianp07/raildispatch/internal/eventbus"
)

// Client is the MQTT surface used by the service.
type Client interface {
	Announcer
	Requests() <-chan model.Request
	Disconnect()
}

// MockClient is an in-memory Client used in tests.
type MockClient struct {
	Intake chan model.Request

	mu        sync.Mutex
	Announced []Message
	Topics    []string
	Closed    bool
}

// NewMockClient creates a MockClient with a buffered intake.
func NewMockClient() *MockClient {
	return &MockClient{Intake: make(chan model.Request, 16)}
}

// Announce records the announcement instead of publishing it.
func (m *MockClient) Announce(ev eventbus.Event) error {
	suffix, msg, ok := Announcement(ev)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Topics = append(m.Topics, suffix)
	m.Announced = append(m.Announced, msg)
	return nil
}

// Requests returns the intake channel.
func (m *MockClient) Requests() <-chan model.Request { return m.Intake }

// Disconnect marks the client closed.
func (m *MockClient) Disconnect() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}

// Snapshot returns a copy of the announced topics.
func (m *MockClient) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Topics...)
}
