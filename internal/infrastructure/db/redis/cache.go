package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	scanBatch = 200
	opTimeout = 300 * time.Millisecond
	// A namespace sweep may walk many SCAN pages.
	sweepTimeout = 2 * time.Second
	// After a backend failure the cache answers locally for this long
	// before trying Redis again.
	cooldown = 5 * time.Second
)

// Cache is a best-effort key/value cache backed by Redis. Every backend
// error is logged and swallowed: reads degrade to misses and writes are
// dropped. One failure parks the backend for a cooldown so a dead Redis
// adds no latency to reads.
type Cache struct {
	client redis.UniversalClient
	log    zerolog.Logger

	mu        sync.Mutex
	downUntil time.Time
	now       func() time.Time
}

// NewCache creates a Cache wrapping the given Redis client.
func NewCache(client redis.UniversalClient, log zerolog.Logger) *Cache {
	return &Cache{client: client, log: log, now: time.Now}
}

// available reports whether the backend is outside its failure cooldown.
func (c *Cache) available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.now().Before(c.downUntil)
}

func (c *Cache) fail(err error, key, msg string) {
	c.mu.Lock()
	c.downUntil = c.now().Add(cooldown)
	c.mu.Unlock()
	c.log.Warn().Err(err).Str("key", key).Msg(msg)
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.available() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.fail(err, key, "cache get failed")
		return nil, false
	}
	return b, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.available() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.fail(err, key, "cache set failed")
	}
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.available() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.fail(err, key, "cache delete failed")
	}
}

// DeletePrefix removes every key starting with prefix. SCAN is used
// instead of KEYS so a large namespace does not block the server.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) bool {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			c.fail(err, prefix, "cache scan failed")
			return false
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.fail(err, prefix, "cache bulk delete failed")
				return false
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.log.Debug().Str("prefix", prefix).Int64("removed", removed).Msg("cache namespace cleared")
	return true
}

func (c *Cache) Generation(ctx context.Context, key string) (int64, bool) {
	if !c.available() {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		c.fail(err, key, "cache generation read failed")
		return 0, false
	}
	return n, true
}

// Bump ignores the cooldown, as does DeletePrefix: an invalidation always
// tries to reach Redis.
func (c *Cache) Bump(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Incr(ctx, key).Err(); err != nil {
		c.fail(err, key, "cache generation bump failed")
		return false
	}
	return true
}

// Ping reports whether the backend is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NopCache is used when no Redis address is configured. Every lookup
// misses and every write is discarded.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NopCache) Set(context.Context, string, []byte, time.Duration) {}

func (NopCache) Delete(context.Context, string) {}

func (NopCache) DeletePrefix(context.Context, string) bool { return true }

func (NopCache) Generation(context.Context, string) (int64, bool) { return 0, false }

func (NopCache) Bump(context.Context, string) bool { return true }
