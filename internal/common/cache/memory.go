package cache

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
)

type MemoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryCache(opts Options) *MemoryCache {
	cacheOpts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](opts.TTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if opts.Capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, []byte](opts.Capacity))
	}
	return &MemoryCache{items: ttlcache.New(cacheOpts...)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	item := m.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte) {
	m.items.Set(key, value, ttlcache.DefaultTTL)
}

func (m *MemoryCache) Invalidate(_ context.Context) {
	m.items.DeleteAll()
}

func (m *MemoryCache) Len() int {
	return m.items.Len()
}
