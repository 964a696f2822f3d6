package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]string
	getError  error
	setError  error
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]string),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return "", m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return "", domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIdentifier is a mock implementation of domain.Identifier
type MockIdentifier struct {
	result   *domain.IdentifyResult
	err      error
	called   bool
	received domain.IdentifyRequest
}

func (m *MockIdentifier) Identify(ctx context.Context, req domain.IdentifyRequest) (*domain.IdentifyResult, error) {
	m.called = true
	m.received = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// MockRetailerSearcher is a mock implementation of domain.RetailerSearcher.
// A query listed in gates blocks until its channel is closed.
type MockRetailerSearcher struct {
	mu      sync.Mutex
	results map[string]*domain.RetailerSearchResult
	result  *domain.RetailerSearchResult
	err     error
	queries []string
	gates   map[string]chan struct{}
	started chan string
}

func NewMockRetailerSearcher() *MockRetailerSearcher {
	return &MockRetailerSearcher{
		results: make(map[string]*domain.RetailerSearchResult),
		gates:   make(map[string]chan struct{}),
	}
}

func (m *MockRetailerSearcher) Search(ctx context.Context, query string) (*domain.RetailerSearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	gate := m.gates[query]
	started := m.started
	m.mu.Unlock()

	if started != nil {
		started <- query
	}
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.results[query]; ok {
		return r, nil
	}
	return m.result, nil
}

// MockMetrics records outcomes
type MockMetrics struct {
	mu       sync.Mutex
	outcomes []string
	failed   []string
	restores []string
}

func (m *MockMetrics) ObserveSearch(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *MockMetrics) ObserveFailedRetailers(retailers []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, retailers...)
}

func (m *MockMetrics) ObserveRestore(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restores = append(m.restores, tier)
}

func floatPtr(f float64) *float64 {
	return &f
}
