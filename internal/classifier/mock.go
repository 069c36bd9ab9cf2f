package classifier

import (
	"context"
	"sync"
)

// MockClient is a test double for Client.
type MockClient struct {
	// Err is returned verbatim when set.
	Err error
	// Label is returned when Err is nil.
	Label string
	calls int
	mu    sync.Mutex
}

// Classify records the call and returns the configured label or error.
func (m *MockClient) Classify(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Label, nil
}

// Calls reports how many times Classify was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
