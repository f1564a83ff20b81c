package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rideintake/internal/distance"
	"rideintake/internal/domain"
	"rideintake/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRideRequestRepository is a mock implementation of RideRequestRepository.
type MockRideRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.RideRequest

	// Counters for verification
	CreateCallCount        int32
	UpdatePaymentCallCount int32

	// Error injection
	CreateError        error
	GetError           error
	UpdatePaymentError error
	GetAllError        error
}

// NewMockRideRequestRepository creates a new mock ride request repository.
func NewMockRideRequestRepository() *MockRideRequestRepository {
	return &MockRideRequestRepository{
		requests: make(map[string]*domain.RideRequest),
	}
}

// AddRequest adds a ride request to the mock repository.
func (m *MockRideRequestRepository) AddRequest(req *domain.RideRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

func (m *MockRideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *req
	m.requests[req.ID] = &copy
	return nil
}

func (m *MockRideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *req
	return &copy, nil
}

func (m *MockRideRequestRepository) UpdatePayment(ctx context.Context, id string, update domain.PaymentUpdate) (*domain.RideRequest, error) {
	atomic.AddInt32(&m.UpdatePaymentCallCount, 1)
	if m.UpdatePaymentError != nil {
		return nil, m.UpdatePaymentError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	update.Apply(req)
	copy := *req
	return &copy, nil
}

func (m *MockRideRequestRepository) GetAll(ctx context.Context) ([]*domain.RideRequest, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.RideRequest, 0, len(m.requests))
	for _, r := range m.requests {
		copy := *r
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetRequest returns a ride request for test assertions.
func (m *MockRideRequestRepository) GetRequest(id string) *domain.RideRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[id]
}

// Count returns the number of stored requests.
func (m *MockRideRequestRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// ──────────────────────────────────────────────
// MOCK DISTANCE RESOLVER
// ──────────────────────────────────────────────

// MockDistanceResolver returns a fixed distance or error.
type MockDistanceResolver struct {
	Miles     float64
	Err       error
	CallCount int32
}

func (m *MockDistanceResolver) Resolve(ctx context.Context, origin, destination string) (*distance.Result, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Err != nil {
		return nil, m.Err
	}
	return &distance.Result{Miles: m.Miles}, nil
}

// ──────────────────────────────────────────────
// CLOCK
// ──────────────────────────────────────────────

// FakeClock is a settable time source.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
