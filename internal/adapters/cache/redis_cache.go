package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache - Cache Tier в Redis: коллекция целиком под одним ключом, без TTL
type RedisCache struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCache(client redis.UniversalClient, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

// NewRedisClient подключается и проверяет соединение через PING
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.key, err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, data []byte) error {
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key, err)
	}
	return nil
}
