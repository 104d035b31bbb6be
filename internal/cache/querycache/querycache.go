// Package querycache is the Redis-backed query cache with a small
// in-process LRU in front of it.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dealmapper/happyhour/internal/cache"
	"github.com/dealmapper/happyhour/internal/cache/keys"
	"github.com/dealmapper/happyhour/internal/cache/redisstore"
	"github.com/dealmapper/happyhour/internal/core/observability"
)

type Cache struct {
	cli     *redisstore.Client
	logger  *slog.Logger
	ttl     time.Duration
	timeout time.Duration

	mu    sync.Mutex
	local *lru.Cache[string, []byte]
}

var _ cache.Interface = (*Cache)(nil)

func New(cli *redisstore.Client, logger *slog.Logger, ttl, opTimeout time.Duration, localSize int) (*Cache, error) {
	if cli == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if localSize <= 0 {
		localSize = 1024
	}
	l, err := lru.New[string, []byte](localSize)
	if err != nil {
		return nil, fmt.Errorf("local lru: %w", err)
	}
	return &Cache{
		cli:     cli,
		logger:  logger,
		ttl:     ttl,
		timeout: opTimeout,
		local:   l,
	}, nil
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	if v, ok := c.local.Get(key); ok {
		c.mu.Unlock()
		observability.IncCacheHit("local")
		return v, true
	}
	c.mu.Unlock()

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	v, ok, err := c.cli.Get(opCtx, key)
	if err != nil {
		c.logger.Warn("query cache get failed, treating as miss", "err", err)
		return nil, false
	}
	if !ok {
		observability.IncCacheMiss("redis")
		return nil, false
	}
	observability.IncCacheHit("redis")

	c.mu.Lock()
	c.local.Add(key, v)
	c.mu.Unlock()
	return v, true
}

func (c *Cache) Put(ctx context.Context, key, cell string, val []byte) {
	c.mu.Lock()
	c.local.Add(key, val)
	c.mu.Unlock()

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.cli.Set(opCtx, key, val, c.ttl); err != nil {
		c.logger.Warn("query cache set failed", "err", err)
		return
	}
	// index the key under its cell so change events can find it; the set
	// outlives the value slightly so expiry races stay harmless
	if err := c.cli.SAddExpire(opCtx, keys.CellSetKey(cell), 2*c.ttl, key); err != nil {
		c.logger.Warn("query cache cell index failed", "err", err)
	}
}

func (c *Cache) InvalidateCells(ctx context.Context, cells ...string) error {
	if len(cells) == 0 {
		return nil
	}

	// local tier has no per-cell index; drop it wholesale
	c.mu.Lock()
	c.local.Purge()
	c.mu.Unlock()

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	var del []string
	for _, cell := range cells {
		setKey := keys.CellSetKey(cell)
		members, err := c.cli.SMembers(opCtx, setKey)
		if err != nil {
			return fmt.Errorf("cell %s members: %w", cell, err)
		}
		del = append(del, members...)
		del = append(del, setKey)
	}
	if err := c.cli.Del(opCtx, del...); err != nil {
		return fmt.Errorf("invalidate %d keys: %w", len(del), err)
	}
	return nil
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
