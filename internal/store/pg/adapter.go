// Package pg implementa core.Store sobre PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/systemrpg/backend/internal/store/core"
)

// Config para la conexión PostgreSQL.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store implementa core.Store.
type Store struct {
	pool      *pgxpool.Pool
	blacklist *blacklistRepo
	users     *userRepo
}

// Connect crea el pool y verifica la conexión.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return &Store{
		pool:      pool,
		blacklist: &blacklistRepo{pool: pool},
		users:     &userRepo{pool: pool},
	}, nil
}

func (s *Store) Blacklist() core.BlacklistRepository { return s.blacklist }
func (s *Store) Users() core.UserRepository          { return s.users }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool subyacente (migraciones, métricas).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// isUniqueViolation detecta el SQLSTATE 23505 de PostgreSQL.
func isUniqueViolation(err error) bool {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code == "23505"
	}
	return false
}

// retryRead ejecuta fn hasta maxAttempts veces con backoff corto para errores
// transitorios de lectura. El retry vive en la capa de storage, no en el
// validator; si se agota, el caller falla cerrado.
func retryRead[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err = fn()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
			}
		}
	}
	return out, err
}
