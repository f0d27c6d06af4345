// Package estatecache keeps recently served estates in process. Estates never
// change after import, so entries only go stale when the dataset is reset.
package estatecache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/isuumo/internal/core/model"
	"github.com/mohammed-shakir/isuumo/internal/core/observability"
)

const defaultSize = 4096

// Cache is safe to use as nil, which disables it.
type Cache struct {
	lru *lru.Cache[int64, model.Estate]
}

func New(size int) *Cache {
	if size <= 0 {
		size = defaultSize
	}
	c, _ := lru.New[int64, model.Estate](size)
	return &Cache{lru: c}
}

func (c *Cache) Get(id int64) (model.Estate, bool) {
	if c == nil {
		return model.Estate{}, false
	}
	e, ok := c.lru.Get(id)
	if ok {
		observability.IncCacheHit("estate")
	} else {
		observability.IncCacheMiss("estate")
	}
	return e, ok
}

func (c *Cache) Add(e model.Estate) {
	if c == nil {
		return
	}
	c.lru.Add(e.ID, e)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
