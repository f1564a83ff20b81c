package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultMaxKeys bounds the number of windows tracked by a Memory limiter.
const DefaultMaxKeys = 10000

type bucket struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local Limiter. The least recently used windows are
// evicted once maxKeys distinct keys are tracked; an evicted key simply
// starts a fresh window on its next call.
type Memory struct {
	mu      sync.Mutex
	buckets *simplelru.LRU[string, *bucket]
	now     func() time.Time
}

// NewMemory creates a Memory limiter tracking at most maxKeys windows.
func NewMemory(maxKeys int) (*Memory, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	buckets, err := simplelru.NewLRU[string, *bucket](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("creating rate limit cache: %w", err)
	}
	return &Memory{buckets: buckets, now: time.Now}, nil
}

// Allow counts one call for key.
func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets.Get(key)
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{count: 1, resetAt: now.Add(window)}
		m.buckets.Add(key, b)
		return Decision{Allowed: true, Count: 1, ResetAt: b.resetAt}, nil
	}

	b.count++
	if b.count > limit {
		return Decision{Allowed: false, Count: b.count, RetryAfter: b.resetAt.Sub(now), ResetAt: b.resetAt}, nil
	}
	return Decision{Allowed: true, Count: b.count, ResetAt: b.resetAt}, nil
}

// Len returns the number of tracked windows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buckets.Len()
}

var _ Limiter = (*Memory)(nil)
