package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Result is the outcome of one admission check. RetryAfter and ResetAfter
// are zero when the request is allowed and Remaining is positive.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAfter time.Duration
}

// Limiter is the admission contract in front of the chat endpoint. The
// in-memory implementation is per-process; the Redis one shares counters
// across instances behind the same contract.
type Limiter interface {
	Admit(ctx context.Context, userId string) (*Result, error)
}

// numBuckets sub-windows per sliding window. Coarser buckets over- or
// under-admit slightly at boundaries in exchange for O(1) state per user.
const numBuckets = 6

type userWindow struct {
	mu     sync.Mutex
	counts map[int64]int // absolute bucket number -> request count
}

// MemoryLimiter is a per-process sliding-window limiter keyed by user id.
// Losing its state on restart resets all counters, which is an accepted
// relaxation: the durable store stays correct regardless.
type MemoryLimiter struct {
	window   time.Duration
	capacity int
	sub      time.Duration
	entries  *cache.Cache
}

func NewMemoryLimiter(window time.Duration, capacity int) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if capacity <= 0 {
		capacity = 60
	}
	// Idle users are evicted after two windows with no traffic so the
	// per-user state stays bounded.
	return &MemoryLimiter{
		window:   window,
		capacity: capacity,
		sub:      window / numBuckets,
		entries:  cache.New(2*window, window),
	}
}

func (l *MemoryLimiter) Admit(_ context.Context, userId string) (*Result, error) {
	w := l.entry(userId)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cur := now.UnixNano() / int64(l.sub)

	// Drop buckets that have slid out of the window.
	total := 0
	oldest := cur
	for num, count := range w.counts {
		if num <= cur-numBuckets {
			delete(w.counts, num)
			continue
		}
		total += count
		if num < oldest {
			oldest = num
		}
	}

	if total >= l.capacity {
		// Next admission happens when the oldest occupied bucket leaves
		// the window.
		exit := time.Unix(0, (oldest+numBuckets)*int64(l.sub))
		retryAfter := time.Until(exit)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return &Result{
			Allowed:    false,
			Limit:      l.capacity,
			Remaining:  0,
			RetryAfter: retryAfter,
			ResetAfter: retryAfter,
		}, nil
	}

	w.counts[cur]++
	// Refresh the idle-eviction clock on every admitted request.
	l.entries.Set(userId, w, cache.DefaultExpiration)

	return &Result{
		Allowed:   true,
		Limit:     l.capacity,
		Remaining: l.capacity - total - 1,
	}, nil
}

func (l *MemoryLimiter) entry(userId string) *userWindow {
	if v, found := l.entries.Get(userId); found {
		return v.(*userWindow)
	}
	w := &userWindow{counts: make(map[int64]int)}
	if err := l.entries.Add(userId, w, cache.DefaultExpiration); err != nil {
		// Lost the insert race; use the winner's entry.
		if v, found := l.entries.Get(userId); found {
			return v.(*userWindow)
		}
	}
	return w
}
