package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo y testing; la limpieza de expirados es automática.
type memoryClient struct {
	prefix string
	store  *gocache.Cache
	mu     sync.Mutex // serializa Increment
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) *memoryClient {
	return &memoryClient{
		prefix: prefix,
		store:  gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.store.Get(c.key(key))
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	c.hits.Add(1)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	d := ttl
	if ttl == 0 {
		d = gocache.NoExpiration
	}
	c.store.Set(c.key(key), value, d)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.store.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.store.Get(c.key(key))
	return ok, nil
}

func (c *memoryClient) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(key)
	if n, err := c.store.IncrementInt64(k, 1); err == nil {
		return n, nil
	}
	// Primera vez en la ventana: crear el contador con el TTL completo.
	d := ttl
	if ttl == 0 {
		d = gocache.NoExpiration
	}
	c.store.Set(k, int64(1), d)
	return 1, nil
}

func (c *memoryClient) Ping(ctx context.Context) error {
	return nil
}

func (c *memoryClient) Close() error {
	c.store.Flush()
	return nil
}

func (c *memoryClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		Driver: "memory",
		Keys:   int64(c.store.ItemCount()),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}, nil
}
