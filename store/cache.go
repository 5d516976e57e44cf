package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long a cached document serves before the next Load
// goes back to disk.
const DefaultTTL = 5 * time.Minute

// CachedKV fronts a KV with an in-memory TTL cache. Loads are
// read-through, saves write-through, so a single process always observes
// its own writes immediately.
type CachedKV struct {
	kv    KV
	cache *bigcache.BigCache
}

// NewCachedKV wraps kv with a cache expiring entries after ttl. A
// non-positive ttl uses DefaultTTL.
func NewCachedKV(kv KV, ttl time.Duration) (*CachedKV, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &CachedKV{kv: kv, cache: cache}, nil
}

func (c *CachedKV) Load(key string, v any) error {
	if data, err := c.cache.Get(key); err == nil {
		if err := json.Unmarshal(data, v); err == nil {
			return nil
		}
		// A corrupt entry falls through to disk and gets rewritten.
		log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.cache.Delete(key)
	}

	if err := c.kv.Load(key, v); err != nil {
		return err
	}
	c.set(key, v)
	return nil
}

func (c *CachedKV) Save(key string, v any) error {
	if err := c.kv.Save(key, v); err != nil {
		// The cache must not serve a value the disk refused.
		_ = c.cache.Delete(key)
		return err
	}
	c.set(key, v)
	return nil
}

func (c *CachedKV) Delete(key string) error {
	if err := c.kv.Delete(key); err != nil {
		return err
	}
	_ = c.cache.Delete(key)
	return nil
}

// InvalidatePrefix drops every cached entry whose key starts with prefix.
// The backing store is untouched.
func (c *CachedKV) InvalidatePrefix(prefix string) {
	it := c.cache.Iterator()
	var stale []string
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.Key(), prefix) {
			stale = append(stale, info.Key())
		}
	}
	for _, key := range stale {
		if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}

func (c *CachedKV) set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

var _ KV = (*CachedKV)(nil)
