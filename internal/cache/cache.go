// Package cache abstrae el cache de apoyo del núcleo de auth: memoiza hits
// de la blacklist y lleva los contadores del rate limiter.
//
// Backends: memory (in-process, dev/tests) y redis (producción).
package cache

import (
	"context"
	"errors"
	"time"
)

// Client son las operaciones que el resto del sistema necesita del cache.
type Client interface {
	// Get devuelve el valor de la key, o ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete borra la key; borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Exists indica si la key está presente.
	Exists(ctx context.Context, key string) (bool, error)

	// Increment suma 1 al contador y devuelve el valor resultante. La primera
	// llamada crea el contador en 1 con el TTL dado (base del rate limiter).
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping chequea que el backend responda.
	Ping(ctx context.Context) error

	Close() error

	// Stats devuelve contadores básicos para diagnóstico.
	Stats(ctx context.Context) (Stats, error)
}

// Stats de diagnóstico del cache.
type Stats struct {
	Driver string
	Keys   int64
	Hits   int64
	Misses int64
}

// Config del cliente de cache.
type Config struct {
	Driver   string `yaml:"driver"` // "memory" | "redis"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"` // prefijo de todas las keys
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound reporta si err es un miss de cache.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New arma el cliente del driver configurado. Driver vacío o desconocido
// cae al backend en memoria.
func New(cfg Config) (Client, error) {
	if cfg.Driver == "redis" {
		return NewRedis(cfg)
	}
	return NewMemory(cfg.Prefix), nil
}
