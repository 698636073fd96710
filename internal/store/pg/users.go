package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/systemrpg/backend/internal/store/core"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	roles, is_active, is_email_verified, last_login_at, created_at`

func (r *userRepo) Create(ctx context.Context, u *core.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
			roles, is_active, is_email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Roles, u.IsActive, u.IsEmailVerified, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	return nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	return r.getBy(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) getBy(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Roles, &u.IsActive, &u.IsEmailVerified, &u.LastLoginAt, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	return exists, err
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
