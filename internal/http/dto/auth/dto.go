// Package auth define los DTOs del flujo de autenticación.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest credenciales de login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest intercambia un refresh token por un par nuevo.
// AccessToken es opcional: si viene, se revoca durante el refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken,omitempty"`
}

// IntrospectRequest consulta el estado de un token.
type IntrospectRequest struct {
	Token string `json:"token"`
}

// IntrospectResponse es el contrato de introspección: claims si está activo,
// motivo si no.
type IntrospectResponse struct {
	Active bool           `json:"active"`
	Claims map[string]any `json:"claims,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// RegisterRequest alta de usuario.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AvailabilityResponse respuesta de check-username / check-email.
type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// AuthResponse respuesta de login y refresh.
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *UserInfo `json:"user,omitempty"`
}

// UserInfo proyección pública del usuario.
type UserInfo struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	FullName        string     `json:"fullName"`
	Roles           []string   `json:"roles"`
	IsActive        bool       `json:"isActive"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}
