package core

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry es un token revocado explícitamente (logout, rotación, revocación
// forzada). Sobrevive al token que marca: se crea al revocar, se consulta en cada
// request autenticado y se poda cuando su expiry pasó (ya no puede rechazar nada).
type BlacklistEntry struct {
	ID          uuid.UUID
	Fingerprint string // hash one-way de longitud fija del token completo, único
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Reason      string     // opcional: "logout", "refresh rotation", etc.
	UserID      *uuid.UUID // opcional: dueño del token revocado
}

// User es el principal que emite/consume tokens. Subconjunto mínimo que el
// núcleo de autenticación necesita; el CRUD completo de usuarios vive afuera.
type User struct {
	ID              uuid.UUID
	Username        string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Roles           []string
	IsActive        bool
	IsEmailVerified bool
	LastLoginAt     *time.Time
	CreatedAt       time.Time
}

// FullName concatena nombre y apellido, tolerando vacíos.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
