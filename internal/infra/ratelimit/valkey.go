package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore counts requests per key in fixed one-minute windows shared by
// every replica.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	limit  int64
	now    func() time.Time
}

// NewValkeyStore admits requestsPerMinute + burst requests per window.
func NewValkeyStore(client valkey.Client, prefix string, requestsPerMinute, burst int) *ValkeyStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &ValkeyStore{client: client, prefix: prefix, limit: int64(requestsPerMinute + burst), now: time.Now}
}

// Allow implements Store.
func (s *ValkeyStore) Allow(ctx context.Context, key string) (bool, error) {
	window := s.now().Unix() / 60
	counterKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, window)

	count, err := s.client.Do(ctx, s.client.B().Incr().Key(counterKey).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.client.Do(ctx, s.client.B().Expire().Key(counterKey).Seconds(120).Build()).Error(); err != nil {
			return false, err
		}
	}
	return count <= s.limit, nil
}

// Close releases the client connection pool.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

var _ Store = (*ValkeyStore)(nil)
