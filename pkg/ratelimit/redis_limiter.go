package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares bucket counters across instances: the upgrade path
// from the per-process MemoryLimiter, behind the same Admit contract.
// The check-then-increment pair is not atomic across instances; a burst
// racing the boundary may slip through, the same relaxation the in-memory
// limiter accepts.
type RedisLimiter struct {
	client   *redis.Client
	window   time.Duration
	capacity int
	sub      time.Duration
}

func NewRedisLimiter(client *redis.Client, window time.Duration, capacity int) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if capacity <= 0 {
		capacity = 60
	}
	return &RedisLimiter{
		client:   client,
		window:   window,
		capacity: capacity,
		sub:      window / numBuckets,
	}
}

func (l *RedisLimiter) bucketKey(userId string, num int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", userId, num)
}

func (l *RedisLimiter) Admit(ctx context.Context, userId string) (*Result, error) {
	now := time.Now()
	cur := now.UnixNano() / int64(l.sub)

	keys := make([]string, numBuckets)
	for i := int64(0); i < numBuckets; i++ {
		keys[i] = l.bucketKey(userId, cur-i)
	}

	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit read: %w", err)
	}

	total := 0
	oldest := cur
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		count, err := strconv.Atoi(s)
		if err != nil || count == 0 {
			continue
		}
		total += count
		if num := cur - int64(i); num < oldest {
			oldest = num
		}
	}

	if total >= l.capacity {
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

	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, keys[0])
	pipe.Expire(ctx, keys[0], l.window+l.sub)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit increment: %w", err)
	}

	return &Result{
		Allowed:   true,
		Limit:     l.capacity,
		Remaining: l.capacity - total - 1,
	}, nil
}
