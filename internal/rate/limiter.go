// Package rate implementa rate limiting fixed-window sobre cache.Client,
// así el mismo limiter corre contra memoria en desarrollo y Redis en
// producción.
package rate

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/systemrpg/backend/internal/cache"
)

// Result es la decisión del limiter para un hit.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter decide si un hit identificado por key pasa.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindowLimiter: ventana fija sencilla (Increment + TTL de ventana).
type FixedWindowLimiter struct {
	Cache  cache.Client
	Prefix string
	Max    int64
	Window time.Duration
}

// NewFixedWindow crea un limiter de max hits por window.
func NewFixedWindow(c cache.Client, prefix string, max int, window time.Duration) *FixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &FixedWindowLimiter{
		Cache:  c,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	cacheKey := fmt.Sprintf("%s:%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, err := l.Cache.Increment(ctx, cacheKey, l.Window)
	if err != nil {
		return Result{}, err
	}

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !allowed {
		res.RetryAfter = winStart.Add(l.Window).Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = l.Window
		}
	}
	return res, nil
}

// IPPathKey genera la key IP + path sin leer el body. Separa límites por
// endpoint (login vs refresh) sin depender del contenido del request.
func IPPathKey(r *http.Request) string {
	return ClientIP(r) + "|" + r.URL.Path
}

// ClientIP extrae la IP del cliente respetando X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
