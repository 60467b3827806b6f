package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sweepInterval spaces out scans for idle visitors.
const sweepInterval = time.Minute

// MemoryStore keeps a token bucket per key inside the process.
type MemoryStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore admits requestsPerMinute on average with the given burst.
func NewMemoryStore(requestsPerMinute, burst int) *MemoryStore {
	return &MemoryStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:    burst,
		ttl:      5 * time.Minute,
		now:      time.Now,
	}
}

// Allow implements Store.
func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.cleanupLocked(now)
		s.lastSweep = now
	}
	return v.limiter.AllowN(now, 1), nil
}

func (s *MemoryStore) cleanupLocked(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
