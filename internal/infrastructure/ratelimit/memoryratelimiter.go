package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// MemoryRateLimiter approximates the sliding windows with one token bucket per
// key and window, for single-process deployments without Redis. Idle buckets
// are evicted once their window has fully refilled.
type MemoryRateLimiter struct {
	buckets *gocache.Cache
	mu      sync.Mutex
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: gocache.New(time.Hour, 10*time.Minute),
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string, limit Limit) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	var limiters []*rate.Limiter
	for _, w := range limit.windows() {
		if w.limit <= 0 {
			continue
		}
		limiters = append(limiters, l.bucket(key, w))
	}

	// reserve from every bucket first so a rejection in one window does not
	// consume tokens from the others
	for _, lim := range limiters {
		if lim.TokensAt(now) < 1 {
			return false, nil
		}
	}
	for _, lim := range limiters {
		lim.AllowN(now, 1)
	}
	return true, nil
}

// bucket must be called with mu held.
func (l *MemoryRateLimiter) bucket(key string, w window) *rate.Limiter {
	cacheKey := fmt.Sprintf("%s:%s:%d", key, w.duration, w.limit)
	if v, ok := l.buckets.Get(cacheKey); ok {
		l.buckets.Set(cacheKey, v, w.duration)
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Every(w.duration/time.Duration(w.limit)), w.limit)
	l.buckets.Set(cacheKey, lim, w.duration)
	return lim
}

func (l *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := key + ":"
	for k := range l.buckets.Items() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			l.buckets.Delete(k)
		}
	}
	return nil
}
