package ratelimit

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-survey-collector/internal/storage/memory"
)

func TestLimiterSlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewSessionCache().WithClock(clock)
	limiter := New(WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ok, err := limiter.Allow(ctx, store, "203.0.113.9")
		if err != nil || !ok {
			t.Fatalf("call %d should pass: ok=%v err=%v", i+1, ok, err)
		}
		now = now.Add(time.Second)
	}
	ok, err := limiter.Allow(ctx, store, "203.0.113.9")
	if err != nil || ok {
		t.Fatalf("11th call within the window must be rejected: ok=%v err=%v", ok, err)
	}

	other, _ := limiter.Allow(ctx, store, "198.51.100.1")
	if !other {
		t.Fatalf("windows are per address")
	}

	now = now.Add(61 * time.Second)
	ok, err = limiter.Allow(ctx, store, "203.0.113.9")
	if err != nil || !ok {
		t.Fatalf("call after 61s should pass: ok=%v err=%v", ok, err)
	}
}

func TestLimiterPrunesPartially(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewSessionCache().WithClock(clock)
	limiter := New(WithClock(clock), WithConfig(Config{Window: 10 * time.Second, Max: 2}))
	ctx := context.Background()

	limiter.Allow(ctx, store, "ip")
	now = now.Add(6 * time.Second)
	limiter.Allow(ctx, store, "ip")
	if ok, _ := limiter.Allow(ctx, store, "ip"); ok {
		t.Fatalf("expected rejection at capacity")
	}
	now = now.Add(5 * time.Second)
	if ok, _ := limiter.Allow(ctx, store, "ip"); !ok {
		t.Fatalf("expected the oldest entry to expire")
	}
	if ok, _ := limiter.Allow(ctx, store, "ip"); ok {
		t.Fatalf("expected rejection once the window refilled")
	}
}

func TestKeyHidesAddress(t *testing.T) {
	key := Key("203.0.113.9")
	if !strings.HasPrefix(key, KeyPrefix) || strings.Contains(key, "203") {
		t.Fatalf("unexpected key %q", key)
	}
	if key != Key(" 203.0.113.9 ") {
		t.Fatalf("expected trimmed address to hash identically")
	}
}

func TestAllowRequiresStore(t *testing.T) {
	if _, err := New().Allow(context.Background(), nil, "ip"); err != ErrStoreRequired {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}

func TestLimiterConcurrentCallsShareOneWindow(t *testing.T) {
	store := memory.NewSessionCache()
	limiter := New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := limiter.Allow(ctx, store, "203.0.113.9"); err == nil && ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := allowed.Load(); got != int32(DefaultMax) {
		t.Fatalf("expected exactly %d admitted calls, got %d", DefaultMax, got)
	}
}
