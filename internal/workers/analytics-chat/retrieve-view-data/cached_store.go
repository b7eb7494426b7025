package retrieveviewdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"analytics-chat/internal/common/cache"
)

// CachedStore memoizes view snapshots for a short TTL so bursts of similar
// questions share one database read.
type CachedStore struct {
	inner Store
	cache cache.Cache
}

func NewCachedStore(inner Store, c cache.Cache) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

func (s *CachedStore) QueryView(ctx context.Context, q Query) (*Snapshot, error) {
	key := snapshotKey(q)

	var snap Snapshot
	if cache.GetJSON(ctx, s.cache, key, &snap) {
		return &snap, nil
	}

	fresh, err := s.inner.QueryView(ctx, q)
	if err != nil {
		return nil, err
	}
	cache.SetJSON(ctx, s.cache, key, fresh)
	return fresh, nil
}

func (s *CachedStore) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

func snapshotKey(q Query) string {
	raw, _ := json.Marshal(q)
	sum := sha256.Sum256(raw)
	return "snapshot:" + q.View + ":" + hex.EncodeToString(sum[:8])
}
