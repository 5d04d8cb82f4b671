package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oggyb/dating-app/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForLikeCount generates Redis key for how many users like userID.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// UpdateLikeCount stores the liked-by count and refreshes its TTL.
func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID uint64, count int64, ttl time.Duration) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, ttl).Err()
}

// GetLikeCount returns the cached liked-by count. ok is false on a miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64, ttl time.Duration) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // corrupt entry, treat as miss
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, ttl).Err()
	return n, true, nil
}

// adjustIfPresent only touches counters that are already cached, so a
// missing key is never initialised from a delta.
var adjustIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	local v = redis.call("INCRBY", KEYS[1], ARGV[1])
	redis.call("EXPIRE", KEYS[1], ARGV[2])
	return v
end
return false
`)

// AdjustLikeCount adds delta to a cached count. A missing key stays missing.
func (c *RedisCache) AdjustLikeCount(ctx context.Context, userID uint64, delta int64, ttl time.Duration) error {
	err := adjustIfPresent.Run(ctx, c.Client,
		[]string{c.KeyForLikeCount(userID)}, delta, int64(ttl/time.Second)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// KeyForMatches is the cache key for one filtered match list.
func (c *RedisCache) KeyForMatches(userID uint64, gender, city string) string {
	return fmt.Sprintf("matches:%d:%s:%s",
		userID, strings.ToLower(gender), strings.ToLower(city))
}

// SetJSON stores v encoded as JSON.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON decodes the value at key into dst. ok is false on a miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (ok bool, err error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// DelPrefix removes every key starting with prefix.
func (c *RedisCache) DelPrefix(ctx context.Context, prefix string) error {
	iter := c.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Del(ctx, keys...)
}

// FlushMatches drops every cached match list. Called after match rows are
// reloaded.
func (c *RedisCache) FlushMatches(ctx context.Context) error {
	return c.DelPrefix(ctx, "matches:")
}

// FlushLikeCounts drops every cached like counter. Called after like rows
// are reloaded.
func (c *RedisCache) FlushLikeCounts(ctx context.Context) error {
	return c.DelPrefix(ctx, "likes:count:")
}
