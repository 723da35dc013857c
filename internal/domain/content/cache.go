package content

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 6 * time.Hour
)

type cachedItem struct {
	item      *Item
	timestamp time.Time
}

// CachedSource keeps recently fetched items in an LRU so that regenerating a
// day after a failure does not refetch content that already arrived.
type CachedSource struct {
	source Source
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

func NewCachedSource(source Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache, _ := lru.New(size)
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *CachedSource) Fetch(ctx context.Context, req Request) (*Item, error) {
	key := req.key()
	if cached, ok := s.cache.Get(key); ok {
		entry := cached.(cachedItem)
		if s.now().Sub(entry.timestamp) < s.ttl {
			return entry.item, nil
		}
		s.cache.Remove(key)
	}

	item, err := s.source.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, cachedItem{item: item, timestamp: s.now()})
	slog.Debug("Content cached",
		slog.String("type", "sys"),
		slog.String("content_type", req.Type),
		slog.String("format", req.Format),
		slog.String("date", req.Date),
		slog.String("content_id", item.ID))
	return item, nil
}

func (s *CachedSource) Purge() {
	s.cache.Purge()
}
