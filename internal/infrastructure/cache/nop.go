package cache

import (
	"context"
	"time"

	"jidokhae/internal/ports/output"
)

var (
	_ output.Locker      = NopLocker{}
	_ output.RateLimiter = NopLimiter{}
)

// NopLocker always acquires. It is used when no Redis is configured and a
// single instance runs the jobs.
type NopLocker struct{}

func (NopLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}

// NopLimiter never limits.
type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}
