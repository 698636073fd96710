package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint devuelve sha256(token) en base64url sin padding.
// Es la huella de longitud fija que se persiste en la blacklist:
// one-way, resistente a colisiones, nunca guarda el token crudo.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

const (
	maskMinLen    = 20
	maskPrefixLen = 8
	maskSuffixLen = 4
)

// Mask enmascara un token para logs: prefijo corto + "…" + sufijo.
// Tokens demasiado cortos se reemplazan por "***" completo.
func Mask(token string) string {
	if len(token) < maskMinLen {
		return "***"
	}
	return token[:maskPrefixLen] + "…" + token[len(token)-maskSuffixLen:]
}
