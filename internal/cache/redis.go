package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient implementa Client sobre Redis.
type redisClient struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis conecta y verifica el backend Redis.
func NewRedis(cfg Config) (*redisClient, error) {
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &redisClient{rdb: rdb, prefix: cfg.Prefix}, nil
}

func (c *redisClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, c.key(key)).Result()
	switch {
	case err == redis.Nil:
		return "", ErrNotFound
	case err != nil:
		return "", err
	}
	return v, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}

func (c *redisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

func (c *redisClient) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := c.key(key)
	n, err := c.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttl > 0 {
		// Primera vez en la ventana: fijar la expiración del contador.
		if err := c.rdb.Expire(ctx, k, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *redisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}

func (c *redisClient) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, err
	}

	s := Stats{Driver: "redis", Keys: keys}
	if info, err := c.rdb.Info(ctx, "stats").Result(); err == nil {
		s.Hits = infoCounter(info, "keyspace_hits")
		s.Misses = infoCounter(info, "keyspace_misses")
	}
	return s, nil
}

// infoCounter extrae un contador "campo:valor" de la salida de INFO.
func infoCounter(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, field+":"); ok {
			n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			return n
		}
	}
	return 0
}
