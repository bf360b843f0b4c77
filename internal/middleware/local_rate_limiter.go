package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"golang.org/x/time/rate"
)

// LocalRateLimiter is an in-process RequestRateLimiter, used when the
// state is not kept in redis.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return &redis_rate.Result{Limit: limit}, nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(limit.Period/time.Duration(limit.Rate)), limit.Burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	now := l.now()
	if limiter.AllowN(now, 1) {
		return &redis_rate.Result{
			Limit:     limit,
			Allowed:   1,
			Remaining: int(limiter.TokensAt(now)),
		}, nil
	}

	reservation := limiter.ReserveN(now, 1)
	retryAfter := reservation.DelayFrom(now)
	reservation.CancelAt(now)

	return &redis_rate.Result{
		Limit:      limit,
		Allowed:    0,
		Remaining:  0,
		RetryAfter: retryAfter,
	}, nil
}
