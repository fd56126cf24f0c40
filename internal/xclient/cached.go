package xclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botcheck/internal/cache"
	"botcheck/internal/logging"
	"botcheck/internal/model"
)

// Cached serves repeated lookups from a cache.Store. Errors are never
// cached, and a failing store only costs a live request.
type Cached struct {
	next  Fetcher
	store cache.Store
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCached(next Fetcher, store cache.Store, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{next: next, store: store, ttl: ttl, log: logging.Component(log, "xcache")}
}

func (c *Cached) GetUserByUsername(ctx context.Context, username string) (model.AccountSnapshot, error) {
	key := "user:" + strings.ToLower(username)
	var out model.AccountSnapshot
	if c.load(ctx, key, &out) {
		return out, nil
	}
	out, err := c.next.GetUserByUsername(ctx, username)
	if err != nil {
		return out, err
	}
	c.save(ctx, key, out)
	return out, nil
}

func (c *Cached) GetUserTweets(ctx context.Context, userID string, limit int) ([]model.PostRecord, error) {
	key := fmt.Sprintf("tweets:%s:%d", userID, limit)
	var out []model.PostRecord
	if c.load(ctx, key, &out) {
		return out, nil
	}
	out, err := c.next.GetUserTweets(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, out)
	return out, nil
}

func (c *Cached) load(ctx context.Context, key string, dst any) bool {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache_get_failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache_decode_failed")
		return false
	}
	return true
}

func (c *Cached) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache_set_failed")
	}
}
