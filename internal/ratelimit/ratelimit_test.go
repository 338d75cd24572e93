package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemory_BurstThenDeny(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	m := NewMemoryAt(60, 3, func() time.Time { return now })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "client-a")
		if err != nil || !ok {
			t.Fatalf("request %d should be allowed (err=%v)", i, err)
		}
	}
	ok, _ := m.Allow(ctx, "client-a")
	if ok {
		t.Fatalf("fourth request should be denied")
	}
}

func TestMemory_RefillsOverTime(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	m := NewMemoryAt(60, 1, func() time.Time { return now })

	ctx := context.Background()
	if ok, _ := m.Allow(ctx, "client-a"); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, _ := m.Allow(ctx, "client-a"); ok {
		t.Fatalf("bucket should be empty")
	}
	// 60/min refills one token per second
	now = now.Add(1100 * time.Millisecond)
	if ok, _ := m.Allow(ctx, "client-a"); !ok {
		t.Fatalf("token should have refilled")
	}
}

func TestMemory_EvictsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	m := NewMemoryAt(60, 3, func() time.Time { return now })

	ctx := context.Background()
	if ok, _ := m.Allow(ctx, "client-a"); !ok {
		t.Fatalf("first request should pass")
	}

	// Idle past the refill horizon; the next call sweeps the stale bucket
	now = now.Add(2 * time.Minute)
	if ok, _ := m.Allow(ctx, "client-b"); !ok {
		t.Fatalf("client-b should pass")
	}
	m.mu.Lock()
	_, stale := m.buckets["client-a"]
	m.mu.Unlock()
	if stale {
		t.Fatalf("expected idle client-a bucket to be evicted")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	m := NewMemoryAt(60, 1, func() time.Time { return now })

	ctx := context.Background()
	if ok, _ := m.Allow(ctx, "client-a"); !ok {
		t.Fatalf("client-a first request should pass")
	}
	if ok, _ := m.Allow(ctx, "client-b"); !ok {
		t.Fatalf("client-b must not be affected by client-a's bucket")
	}
}
