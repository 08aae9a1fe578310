// Package ratelimit caps how often a single reporter can hit write endpoints.
package ratelimit

import (
	"context"
	"time"
)

// Limit holds per-window request caps. A zero cap disables that window.
type Limit struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

func (l Limit) IsZero() bool {
	return l.PerMinute <= 0 && l.PerHour <= 0 && l.PerDay <= 0
}

type window struct {
	duration time.Duration
	limit    int
}

func (l Limit) windows() []window {
	return []window{
		{time.Minute, l.PerMinute},
		{time.Hour, l.PerHour},
		{24 * time.Hour, l.PerDay},
	}
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (bool, error)
	Reset(ctx context.Context, key string) error
}
