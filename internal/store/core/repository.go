package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlacklistRepository persiste fingerprints de tokens revocados.
type BlacklistRepository interface {
	// Add inserta una entrada. Devuelve ErrConflict si el fingerprint ya existe
	// (nunca dos filas para el mismo token).
	Add(ctx context.Context, entry *BlacklistEntry) error

	// Contains indica si el fingerprint está revocado. Corre en el hot path de
	// cada request autenticado: debe ser un lookup indexado y respetar el
	// deadline del contexto.
	Contains(ctx context.Context, fingerprint string) (bool, error)

	// PruneExpired borra las entradas con expiry < now y devuelve cuántas.
	PruneExpired(ctx context.Context, now time.Time) (int64, error)

	// CountActive cuenta las entradas todavía vigentes.
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// UserRepository es el subconjunto de persistencia de usuarios que el núcleo
// de autenticación consume.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Store agrupa los repositorios sobre una misma conexión.
type Store interface {
	Blacklist() BlacklistRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	Close() error
}
