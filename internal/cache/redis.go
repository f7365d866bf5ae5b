package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/skybook/config"
	"github.com/redis/go-redis/v9"
)

const searchGenerationKey = "cache:flights:gen"

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL}
}

// SearchKey resolves query to its key under the current search generation.
// A search reads and writes through the same key so a page built while the
// generation moves on is stored where nothing reads it.
func (c *RedisCache) SearchKey(ctx context.Context, query string) (string, error) {
	gen, err := c.client.Get(ctx, searchGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("cache:flights:search:%d:%s", gen, hex.EncodeToString(sum[:])), nil
}

// GetSearch loads the result stored under a SearchKey into dst. A miss
// returns false and no error.
func (c *RedisCache) GetSearch(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.searchTTL).Err()
}

// InvalidateFlights bumps the search generation. Entries stored under older
// generations are never read again and expire on their TTL.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, searchGenerationKey).Err()
}

func (c *RedisCache) AcquireSeatLock(ctx context.Context, flightID, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(flightID, seat), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, flightID, seat string) error {
	return c.client.Del(ctx, seatLockKey(flightID, seat)).Err()
}

func seatLockKey(flightID, seat string) string {
	return fmt.Sprintf("lock:flight:%s:seat:%s", flightID, seat)
}
