package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterAdmitsUpToCapacity(t *testing.T) {
	limiter := NewMemoryLimiter(time.Minute, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Admit(ctx, "alice")
		if err != nil {
			t.Fatalf("Admit: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rejected below capacity", i+1)
		}
		if res.Remaining != 3-i-1 {
			t.Errorf("Remaining = %d, want %d", res.Remaining, 3-i-1)
		}
	}

	res, err := limiter.Admit(ctx, "alice")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if res.Allowed {
		t.Fatal("request over capacity must be rejected")
	}
	if res.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want at least a second", res.RetryAfter)
	}
	if res.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", res.Remaining)
	}
}

func TestMemoryLimiterIsolatesUsers(t *testing.T) {
	limiter := NewMemoryLimiter(time.Minute, 1)
	ctx := context.Background()

	if res, _ := limiter.Admit(ctx, "alice"); !res.Allowed {
		t.Fatal("first request rejected")
	}
	if res, _ := limiter.Admit(ctx, "alice"); res.Allowed {
		t.Fatal("alice over capacity must be rejected")
	}
	if res, _ := limiter.Admit(ctx, "bob"); !res.Allowed {
		t.Fatal("bob must not be throttled by alice's traffic")
	}
}

func TestMemoryLimiterReadmitsAfterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(600*time.Millisecond, 2)
	ctx := context.Background()

	limiter.Admit(ctx, "alice")
	limiter.Admit(ctx, "alice")
	if res, _ := limiter.Admit(ctx, "alice"); res.Allowed {
		t.Fatal("over capacity must be rejected")
	}

	time.Sleep(800 * time.Millisecond)

	if res, _ := limiter.Admit(ctx, "alice"); !res.Allowed {
		t.Fatal("window elapsed, request must be admitted again")
	}
}

func TestMemoryLimiterConcurrentAdmission(t *testing.T) {
	limiter := NewMemoryLimiter(time.Minute, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Admit(ctx, "alice")
			if err != nil {
				t.Errorf("Admit: %v", err)
				return
			}
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed)
	}
}
