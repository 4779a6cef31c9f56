// Package cache holds the optional Redis-backed observability counters.
// Webhook no-op outcomes (duplicate delivery, unknown reference) are
// acknowledged with 200 at the transport level, so counters are the only
// place they stay visible.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counters increments named counters. With Redis configured the counts
// survive restarts and aggregate across instances; otherwise an in-process
// map is used.
type Counters struct {
	rdb *redis.Client

	mu    sync.Mutex
	local map[string]int64
}

// NewCounters connects to Redis when addr is non-empty, falling back to
// in-process counting when the connection cannot be established.
func NewCounters(addr, password string) *Counters {
	c := &Counters{local: map[string]int64{}}
	if addr == "" {
		return c
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return c
	}

	c.rdb = rdb
	return c
}

// NewLocalCounters returns an in-process counter set, used in tests and
// when Redis is disabled.
func NewLocalCounters() *Counters {
	return &Counters{local: map[string]int64{}}
}

// Incr bumps the named counter. Failures are swallowed; counting must
// never affect the request path.
func (c *Counters) Incr(ctx context.Context, name string) {
	if c == nil {
		return
	}
	if c.rdb != nil {
		_ = c.rdb.Incr(ctx, "counters:"+name).Err()
		return
	}
	c.mu.Lock()
	c.local[name]++
	c.mu.Unlock()
}

// Get reads the named counter, for tests and the health surface.
func (c *Counters) Get(ctx context.Context, name string) int64 {
	if c == nil {
		return 0
	}
	if c.rdb != nil {
		n, err := c.rdb.Get(ctx, "counters:"+name).Int64()
		if err != nil {
			return 0
		}
		return n
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local[name]
}

// Close releases the Redis connection when one exists.
func (c *Counters) Close() {
	if c != nil && c.rdb != nil {
		_ = c.rdb.Close()
	}
}
