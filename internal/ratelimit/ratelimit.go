package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a caller identified by key may proceed. State is
// owned by the limiter instance, never by process-wide globals.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// bucket is one caller's token bucket.
type bucket struct {
	tokens float64
	last   time.Time
}

// Memory is an in-process token bucket limiter, refilled at ratePerMinute
// with a burst ceiling. Suited to single-instance deployments and tests.
type Memory struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64 // tokens per second
	burst     float64
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory(ratePerMinute, burst int) *Memory {
	if burst <= 0 {
		burst = 1
	}
	return &Memory{
		buckets: map[string]*bucket{},
		rate:    float64(ratePerMinute) / 60,
		burst:   float64(burst),
		now:     time.Now,
	}
}

// NewMemoryAt is NewMemory with an injected clock.
func NewMemoryAt(ratePerMinute, burst int, now func() time.Time) *Memory {
	m := NewMemory(ratePerMinute, burst)
	m.now = now
	return m
}

func (m *Memory) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: m.burst, last: now}
		m.buckets[key] = b
	}
	b.tokens += now.Sub(b.last).Seconds() * m.rate
	if b.tokens > m.burst {
		b.tokens = m.burst
	}
	b.last = now
	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// idleHorizon is how long a bucket may sit untouched before eviction: the
// time a full refill takes, never under a minute. Past that a fresh bucket
// is indistinguishable from the evicted one.
func (m *Memory) idleHorizon() time.Duration {
	if m.rate <= 0 {
		return time.Minute
	}
	h := time.Duration(m.burst / m.rate * float64(time.Second))
	if h < time.Minute {
		h = time.Minute
	}
	return h
}

// sweep drops idle buckets so the map does not grow with client churn.
// Caller holds the lock.
func (m *Memory) sweep(now time.Time) {
	horizon := m.idleHorizon()
	if now.Sub(m.lastSweep) < horizon {
		return
	}
	for k, b := range m.buckets {
		if now.Sub(b.last) >= horizon {
			delete(m.buckets, k)
		}
	}
	m.lastSweep = now
}
