// Package cache memoizes expensive fetches in Redis. A full profile
// recovery drives a real browser for a couple of minutes; serving repeats
// from cache is the difference between usable and not.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// RedisClient is the shared Redis client.
var RedisClient = redis.NewClient(&redis.Options{
	Addr:     redisAddr(),
	Password: os.Getenv("REDIS_PASSWORD"),
	DB:       0,
})

// Memoize caches fn's result in Redis under key for ttl. Cache errors are
// treated as misses; the function result is always authoritative.
func Memoize[T any](key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var result T
	ctx := context.Background()

	cachedData, err := RedisClient.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			return result, nil
		}
	}

	result, err = fn()
	if err != nil {
		return result, err
	}

	if cacheData, err := json.Marshal(result); err == nil {
		RedisClient.Set(ctx, key, cacheData, ttl)
	}
	return result, nil
}
