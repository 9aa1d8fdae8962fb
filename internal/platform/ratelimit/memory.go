package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMaxClients = 100_000

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore 进程内的计数表，容量有上限：超出时淘汰最久未访问的客户端。
// 被淘汰的客户端下次访问会拿到一个新窗口。
type MemoryStore struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
}

func NewMemoryStore(maxClients int) (*MemoryStore, error) {
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	c, err := lru.New[string, *entry](maxClients)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: c}, nil
}

func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok {
		e = &entry{}
		s.entries.Add(key, e)
	}
	return decide(e, limit, window, now), nil
}

// Sweep 删除已过期的窗口，返回删除的数量。
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range s.entries.Keys() {
		e, ok := s.entries.Peek(key)
		if ok && now.After(e.resetAt) {
			s.entries.Remove(key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// RunSweeper 定期清理过期窗口，直到 ctx 结束。
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				slog.Debug("ratelimit sweep", "removed", n, "remaining", s.Len())
			}
		}
	}
}
