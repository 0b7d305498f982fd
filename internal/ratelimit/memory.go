package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps fixed-window counters in a process-local map guarded by
// a mutex. Counters are not shared across instances; use RedisStore when
// running more than one replica.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source (tests).
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implements Store. The whole check-and-increment runs under the lock.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.After(rec.resetAt) {
		rec = &record{count: 1, resetAt: now.Add(window)}
		s.records[key] = rec
		return Decision{Limit: limit, Count: 1, ResetAt: rec.resetAt}, nil
	}

	if rec.count >= limit {
		return Decision{Limited: true, Limit: limit, Count: rec.count, ResetAt: rec.resetAt}, nil
	}

	rec.count++
	return Decision{Limit: limit, Count: rec.count, ResetAt: rec.resetAt}, nil
}

// Sweep deletes records whose window has expired and returns how many were
// removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, rec := range s.records {
		if now.After(rec.resetAt) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StartJanitor runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
