package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tiered is a two-level text cache: L1 in memory, optional L2 in Redis.
// L1 is lost on restart; L2 survives restarts and is shared between instances.
// Redis errors never fail a lookup, they only cost a miss.
type Tiered struct {
	mu         sync.Mutex
	l1         map[string]entry
	rdb        *redis.Client // nil when Redis is disabled or unreachable
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger
}

type entry struct {
	value     string
	expiresAt time.Time
}

// New creates a tiered cache. redisURL may be empty to disable L2; an invalid
// or unreachable Redis is logged and L2 is disabled.
func New(ctx context.Context, redisURL string, ttl time.Duration, maxEntries int, logger *slog.Logger) *Tiered {
	c := &Tiered{
		l1:         make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     logger,
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("cache: invalid redis URL, L2 disabled", "error", err)
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("cache: redis unreachable, L2 disabled", "addr", opts.Addr, "error", err)
				rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("cache: L2 redis connected", "addr", opts.Addr)
			}
		}
	}

	logger.Debug("cache: initialized", "ttl", ttl.String(), "redis", c.rdb != nil, "max_entries", maxEntries)
	return c
}

// Key builds a deterministic cache key from parts.
func Key(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("canjobs:%s:%x", prefix, sum[:12])
}

// Get tries L1, then L2. An L2 hit is copied into L1.
func (c *Tiered) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	e, ok := c.l1[key]
	if ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, true
	}
	if ok {
		delete(c.l1, key)
	}
	c.mu.Unlock()

	if c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache: L2 get failed", "error", err)
		}
		return "", false
	}
	c.setL1(key, val)
	return val, true
}

// Set stores value in both tiers.
func (c *Tiered) Set(ctx context.Context, key, value string) {
	c.setL1(key, value)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Debug("cache: L2 set failed", "error", err)
	}
}

// Len returns the number of L1 entries, including expired ones not yet evicted.
func (c *Tiered) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.l1)
}

// Close releases the Redis connection, if any.
func (c *Tiered) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Tiered) setL1(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.l1[key]; !exists {
		c.evictLocked()
	}
	c.l1[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked makes room for one more entry: expired entries go first, then
// the entries closest to expiry (the oldest, since every entry shares one TTL).
func (c *Tiered) evictLocked() {
	if c.maxEntries <= 0 || len(c.l1) < c.maxEntries {
		return
	}

	now := c.now()
	for k, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, k)
		}
	}

	for len(c.l1) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.l1 {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}
}
