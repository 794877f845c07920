package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"matrix-api/domain"
)

type backend interface {
	FetchDocument(ctx context.Context, key string) (domain.Document, error)
	ReplaceDocument(ctx context.Context, key string, doc domain.Document) error
}

// Cache wraps a document store with Redis-backed caching for reads.
// Replaces go to the backend first and then evict the cached copy.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchDocument(ctx context.Context, key string) (domain.Document, error) {
	if doc, ok := c.loadFromCache(ctx, key); ok {
		return doc, nil
	}

	doc, err := c.base.FetchDocument(ctx, key)
	if err != nil {
		return domain.Document{}, err
	}

	c.store(ctx, key, doc)
	return doc, nil
}

func (c *Cache) ReplaceDocument(ctx context.Context, key string, doc domain.Document) error {
	if err := c.base.ReplaceDocument(ctx, key, doc); err != nil {
		return err
	}

	c.evict(ctx, key)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, key string) (domain.Document, bool) {
	if c.redis == nil {
		return domain.Document{}, false
	}
	data, err := c.redis.Get(ctx, documentCacheKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, documentCacheKey(key)).Err()
		}
		return domain.Document{}, false
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		_ = c.redis.Del(ctx, documentCacheKey(key)).Err()
		return domain.Document{}, false
	}
	return doc, true
}

func (c *Cache) store(ctx context.Context, key string, doc domain.Document) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, documentCacheKey(key), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, documentCacheKey(key)).Result()
}

func documentCacheKey(key string) string {
	return "doc:" + key
}
