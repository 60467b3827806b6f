package ratelimit

import "context"

// Store decides whether one more request from key is admitted.
type Store interface {
	Allow(ctx context.Context, key string) (bool, error)
}
