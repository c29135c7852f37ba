package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/atuch/dojang/core"
)

const scanCount = 100

// redisCache shares JSON snapshots between API instances.
type redisCache struct {
	rdb *redis.Client
}

var _ core.Cache = (*redisCache)(nil)

func NewRedisCache(rdb *redis.Client) *redisCache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "getting %q", key)
	}
	if err = json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(c.rdb.Set(ctx, key, data, ttl).Err(), "setting %q", key)
}

func (c *redisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrapf(err, "scanning %q", prefix)
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrapf(c.rdb.Del(ctx, keys...).Err(), "deleting %q", prefix)
}

// NewService returns a Redis cache when cache.redisURL is set, an in-memory cache otherwise.
// The returned func releases the Redis connections.
func NewService(ctx context.Context, conf *core.Config) (core.Cache, func() error, error) {
	if conf.Cache.RedisURL == "" {
		return NewMemoryCache(conf.Cache.TTL), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(conf.Cache.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing redis URL")
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, errors.Wrap(err, "pinging redis")
	}
	return NewRedisCache(rdb), rdb.Close, nil
}
