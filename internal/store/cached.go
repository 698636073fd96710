package store

import (
	"context"
	"time"

	"github.com/systemrpg/backend/internal/cache"
	"github.com/systemrpg/backend/internal/store/core"
)

// CachedBlacklist envuelve un BlacklistRepository con un cache de hits
// positivos. Solo se cachean fingerprints confirmados como revocados: un
// negativo cacheado ocultaría una revocación recién escrita, y la garantía es
// que la revocación se ve en cuanto el write de storage termina.
type CachedBlacklist struct {
	inner core.BlacklistRepository
	cache cache.Client
	ttl   time.Duration
}

const blacklistKeyPrefix = "bl:"

// NewCachedBlacklist crea el wrapper. ttl acota cuánto vive un hit positivo
// en cache; las entradas revocadas nunca dejan de estarlo antes de expirar,
// así que un TTL generoso es seguro.
func NewCachedBlacklist(inner core.BlacklistRepository, c cache.Client, ttl time.Duration) *CachedBlacklist {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBlacklist{inner: inner, cache: c, ttl: ttl}
}

func (b *CachedBlacklist) Add(ctx context.Context, entry *core.BlacklistEntry) error {
	err := b.inner.Add(ctx, entry)
	if err != nil && !core.IsConflict(err) {
		return err
	}
	// El cache es best-effort: si falla, el lookup cae a storage igual.
	_ = b.cache.Set(ctx, blacklistKeyPrefix+entry.Fingerprint, "1", b.ttl)
	return err
}

func (b *CachedBlacklist) Contains(ctx context.Context, fingerprint string) (bool, error) {
	if ok, err := b.cache.Exists(ctx, blacklistKeyPrefix+fingerprint); err == nil && ok {
		return true, nil
	}
	revoked, err := b.inner.Contains(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	if revoked {
		_ = b.cache.Set(ctx, blacklistKeyPrefix+fingerprint, "1", b.ttl)
	}
	return revoked, nil
}

func (b *CachedBlacklist) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	return b.inner.PruneExpired(ctx, now)
}

func (b *CachedBlacklist) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return b.inner.CountActive(ctx, now)
}
