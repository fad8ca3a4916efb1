package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MockFetcher is a dataset.Fetcher returning canned bytes per source
type MockFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	err   error
	calls int
}

// NewMockFetcher creates a fetcher with no resources
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{data: make(map[string][]byte)}
}

// SetResource sets the content returned for source
func (m *MockFetcher) SetResource(source string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[source] = []byte(content)
}

// SetError makes every fetch fail with err; nil restores normal behavior
func (m *MockFetcher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many fetches were made
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Fetch implements dataset.Fetcher
func (m *MockFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.data[source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", source, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}
