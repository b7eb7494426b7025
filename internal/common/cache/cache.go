// Package cache holds the TTL caches owned by pipeline components. The live
// view schema, short-lived view snapshots and category mappings use it.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a keyed TTL store. A miss is reported by ok=false, never by error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context)
}

// GetJSON decodes a cached JSON value into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Set(ctx, key, raw)
}

type Options struct {
	TTL      time.Duration
	Capacity uint64
	Prefix   string
}
