package jwt

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Claims son las claims decodificadas de un token ya verificado.
// Las proyecciones son puras: no tocan red ni estado, y fallan con
// ErrClaimMissing en vez de defaultear en silencio.
type Claims map[string]any

// Subject devuelve el claim "sub" (username).
func (cl Claims) Subject() (string, error) {
	s, ok := cl["sub"].(string)
	if !ok || s == "" {
		return "", ErrClaimMissing
	}
	return s, nil
}

// UserID devuelve el claim "userId" parseado como UUID.
func (cl Claims) UserID() (uuid.UUID, error) {
	s, ok := cl[claimUserID].(string)
	if !ok || s == "" {
		return uuid.Nil, ErrClaimMissing
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrClaimMissing
	}
	return id, nil
}

// TokenType devuelve el claim "tokenType" validado contra el enum.
func (cl Claims) TokenType() (TokenType, error) {
	s, ok := cl[claimTokenType].(string)
	if !ok {
		return "", ErrClaimMissing
	}
	typ, ok := ParseTokenType(s)
	if !ok {
		return "", ErrClaimMissing
	}
	return typ, nil
}

// Roles devuelve el claim "roles" normalizado a []string.
// Tolera []any (JSON decodificado) y []string.
func (cl Claims) Roles() ([]string, error) {
	v, ok := cl[claimRoles]
	if !ok {
		return nil, ErrClaimMissing
	}
	switch arr := v.(type) {
	case []string:
		return arr, nil
	case []any:
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return nil, ErrClaimMissing
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, ErrClaimMissing
}

// IssuedAt devuelve el claim "iat".
func (cl Claims) IssuedAt() (time.Time, error) {
	return cl.unixClaim("iat")
}

// ExpiresAt devuelve el claim "exp".
func (cl Claims) ExpiresAt() (time.Time, error) {
	return cl.unixClaim("exp")
}

// Expired indica si el token ya venció respecto de now.
// Un "exp" ausente cuenta como expirado (fail closed).
func (cl Claims) Expired(now time.Time) bool {
	exp, err := cl.ExpiresAt()
	if err != nil {
		return true
	}
	return exp.Before(now)
}

func (cl Claims) unixClaim(key string) (time.Time, error) {
	switch v := cl[key].(type) {
	case float64:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	}
	return time.Time{}, ErrClaimMissing
}

// JWK es una clave pública en formato JSON Web Key.
type JWK struct {
	KID string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	X   string `json:"x"`
}

// JWKS es el key set que expone /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

func encodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
