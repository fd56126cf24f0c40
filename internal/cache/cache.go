// Package cache holds short-lived copies of X API responses so repeated
// analyses of the same handle do not spend rate-limit budget.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented TTL cache. Get reports a miss with ok=false and
// a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
