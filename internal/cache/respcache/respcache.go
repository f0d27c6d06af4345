// Package respcache caches rendered JSON responses in Redis. Entries are
// never deleted; a mutation bumps its entity generation and every key built
// afterwards misses the old entries, which expire by TTL.
package respcache

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/mohammed-shakir/isuumo/internal/cache/keys"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
)

const (
	EntityChair  = "chair"
	EntityEstate = "estate"
)

// Backend is the Redis surface the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache is safe to use as nil, which disables caching.
type Cache struct {
	be        Backend
	ttl       time.Duration
	opTimeout time.Duration
	log       *slog.Logger
}

func New(be Backend, ttl, opTimeout time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{be: be, ttl: ttl, opTimeout: opTimeout, log: log}
}

func (c *Cache) Enabled() bool { return c != nil && c.be != nil }

func (c *Cache) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

// Lookup returns the cached body for route+query under the current
// generations of entities. key is empty when the generations could not be
// read, in which case the caller must not Store.
func (c *Cache) Lookup(ctx context.Context, route string, query url.Values, entities ...string) (body []byte, key string, ok bool) {
	if !c.Enabled() {
		return nil, "", false
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	genKeys := make([]string, len(entities))
	for i, e := range entities {
		genKeys[i] = keys.Generation(e)
	}
	vals, err := c.be.MGet(ctx, genKeys)
	if err != nil {
		c.log.WarnContext(ctx, "response cache generation read failed", "route", route, "err", err)
		observability.IncCacheMiss("response")
		return nil, "", false
	}

	gens := make([]keys.Gen, len(entities))
	for i, e := range entities {
		var n int64
		if raw, found := vals[genKeys[i]]; found {
			n, _ = strconv.ParseInt(string(raw), 10, 64)
		}
		gens[i] = keys.Gen{Entity: e, N: n}
	}
	key = keys.Response(route, query, gens...)

	body, found, err := c.be.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "response cache read failed", "key", key, "err", err)
		observability.IncCacheMiss("response")
		return nil, "", false
	}
	if !found {
		observability.IncCacheMiss("response")
		return nil, key, false
	}
	observability.IncCacheHit("response")
	return body, key, true
}

// Store saves body under a key returned by Lookup.
func (c *Cache) Store(ctx context.Context, key string, body []byte) {
	if !c.Enabled() || key == "" {
		return
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := c.be.Set(ctx, key, body, c.ttl); err != nil {
		c.log.WarnContext(ctx, "response cache write failed", "key", key, "err", err)
	}
}

// Invalidate bumps the generation of each entity.
func (c *Cache) Invalidate(ctx context.Context, entities ...string) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	for _, e := range entities {
		if _, err := c.be.Incr(ctx, keys.Generation(e)); err != nil {
			c.log.WarnContext(ctx, "response cache invalidation failed", "entity", e, "err", err)
		}
	}
}
