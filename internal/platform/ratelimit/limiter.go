package ratelimit

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultLimit  = 60
	DefaultWindow = 60 * time.Second
)

var ErrInvalidConfig = errors.New("ratelimit: limit and window must be positive")

// Decision 是一次限流判断的结果。无论放行与否，中间件都会把 Limit/Remaining/ResetAt 写进响应头。
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // 只在拒绝时有意义
}

// RetryAfterSeconds 向上取整，Retry-After 头的单位是秒。
func (d Decision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int64((d.RetryAfter + time.Second - 1) / time.Second)
}

// Store 保存每个 key 的固定窗口计数。Take 对同一个 key 的读-改-写必须是原子的。
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error)
}

// Limiter 固定窗口限流：窗口从过期后的第一次请求开始重新计时，而不是对齐到整分钟。
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store Store, limit int, window time.Duration) (*Limiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, ErrInvalidConfig
	}
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}, nil
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	return l.store.Take(ctx, key, l.limit, l.window, l.now())
}

// decide 是两种 store 共用的窗口算法，entry 由调用方保证独占。
func decide(e *entry, limit int, window time.Duration, now time.Time) Decision {
	if e.resetAt.IsZero() || now.After(e.resetAt) {
		e.count = 0
		e.resetAt = now.Add(window)
	}
	if e.count >= limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: e.resetAt.Sub(now),
		}
	}
	e.count++
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: max(limit-e.count, 0),
		ResetAt:   e.resetAt,
	}
}
