package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/systemrpg/backend/internal/store/core"
)

// blacklistRepo implementa core.BlacklistRepository sobre la tabla token_blacklist.
// Contains es hot path: lookup por índice único en fingerprint.
type blacklistRepo struct {
	pool *pgxpool.Pool
}

const containsMaxAttempts = 3

func (r *blacklistRepo) Add(ctx context.Context, entry *core.BlacklistEntry) error {
	if entry.Fingerprint == "" {
		return core.ErrInvalid
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO token_blacklist (id, fingerprint, expires_at, created_at, reason, user_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`, entry.ID, entry.Fingerprint, entry.ExpiresAt, entry.CreatedAt, entry.Reason, entry.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (r *blacklistRepo) Contains(ctx context.Context, fingerprint string) (bool, error) {
	return retryRead(ctx, containsMaxAttempts, func() (bool, error) {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE fingerprint = $1)`,
			fingerprint,
		).Scan(&exists)
		if err != nil {
			return false, err
		}
		return exists, nil
	})
}

func (r *blacklistRepo) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM token_blacklist WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *blacklistRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM token_blacklist WHERE expires_at >= $1`, now,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
