package cachesvc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
)

// memoryCache keeps JSON snapshots in process memory. Values are copied in and out.
type memoryCache struct {
	store *gocache.Cache
}

var _ core.Cache = (*memoryCache)(nil)

func NewMemoryCache(defaultTTL time.Duration) *memoryCache {
	return &memoryCache{store: gocache.New(defaultTTL, 10*time.Minute)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	val, found := c.store.Get(key)
	if !found {
		return false, nil
	}
	data, ok := val.([]byte)
	if !ok {
		return false, errors.Errorf("unexpected cached value %T at %q", val, key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, data, ttl)
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
	return nil
}
