// Package jwt implementa el codec de tokens firmados: emisión, verificación
// de firma y proyección de claims.
//
// El codec firma HS256 por defecto (secreto compartido) y opcionalmente EdDSA
// cuando hay un par de claves Ed25519 configurado; solo el modo EdDSA puede
// publicar su clave en el JWKS.
package jwt

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/google/uuid"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenType distingue el propósito de un token.
type TokenType string

const (
	// TypeAccess autoriza acceso a recursos protegidos.
	TypeAccess TokenType = "ACCESS"
	// TypeRefresh solo sirve para renovar un par de tokens.
	TypeRefresh TokenType = "REFRESH"
)

// ParseTokenType valida un string contra los tipos conocidos.
func ParseTokenType(s string) (TokenType, bool) {
	switch TokenType(s) {
	case TypeAccess, TypeRefresh:
		return TokenType(s), true
	}
	return "", false
}

// Claves de claims custom (mismo esquema lógico que el resto del ecosistema).
const (
	claimUserID    = "userId"
	claimRoles     = "roles"
	claimTokenType = "tokenType"
)

var (
	// ErrMalformedToken cubre estructura rota, algoritmo no soportado y firma
	// inválida por igual: el caller no debe poder distinguirlos.
	ErrMalformedToken = errors.New("jwt: malformed or tampered token")

	// ErrClaimMissing indica una claim ausente o con tipo inválido.
	ErrClaimMissing = errors.New("jwt: required claim missing or malformed")
)

const (
	algHS256 = "HS256"
	algEdDSA = "EdDSA"
)

// Codec emite y consume tokens firmados.
type Codec struct {
	alg    string
	secret []byte
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	kid    string
	now    func() time.Time
}

// NewHMACCodec crea un codec HS256 con secreto compartido.
func NewHMACCodec(secret string) *Codec {
	return &Codec{
		alg:    algHS256,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// NewEdDSACodec crea un codec EdDSA con el par de claves dado.
// El kid se inyecta en el header de cada token y en el JWKS.
func NewEdDSACodec(kid string, priv ed25519.PrivateKey, pub ed25519.PublicKey) *Codec {
	return &Codec{
		alg:  algEdDSA,
		priv: priv,
		pub:  pub,
		kid:  kid,
		now:  time.Now,
	}
}

// Issue firma un token con el claim set completo.
// No tiene efectos secundarios: solo devuelve el string firmado y su expiry.
func (c *Codec) Issue(subject string, userID uuid.UUID, typ TokenType, roles []string, ttl time.Duration) (string, time.Time, error) {
	now := c.now().UTC()
	exp := now.Add(ttl)

	if roles == nil {
		roles = []string{}
	}
	claims := jwtv5.MapClaims{
		// jti único por emisión: sin él, dos tokens del mismo usuario firmados
		// en el mismo segundo serían byte-idénticos y revocar uno revocaría
		// los dos (iat/exp tienen resolución de un segundo).
		"jti":          uuid.NewString(),
		"sub":          subject,
		claimUserID:    userID.String(),
		claimRoles:     roles,
		claimTokenType: string(typ),
		"iat":          now.Unix(),
		"exp":          exp.Unix(),
	}

	var method jwtv5.SigningMethod = jwtv5.SigningMethodHS256
	var key any = c.secret
	if c.alg == algEdDSA {
		method = jwtv5.SigningMethodEdDSA
		key = c.priv
	}

	tk := jwtv5.NewWithClaims(method, claims)
	tk.Header["typ"] = "JWT"
	if c.kid != "" {
		tk.Header["kid"] = c.kid
	}

	signed, err := tk.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseClaims verifica la firma y decodifica las claims SIN validar expiración.
// El validator necesita distinguir "firma inválida" de "expirado", por eso la
// expiración se chequea aparte con Claims.ExpiresAt.
// Cualquier fallo estructural o de firma colapsa en ErrMalformedToken.
func (c *Codec) ParseClaims(raw string) (Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		if c.alg == algEdDSA {
			return c.pub, nil
		}
		return c.secret, nil
	}

	tok, err := jwtv5.Parse(raw, keyfunc,
		jwtv5.WithValidMethods([]string{c.alg}),
		jwtv5.WithoutClaimsValidation(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrMalformedToken
	}

	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}

	out := make(Claims, len(mc))
	for k, v := range mc {
		out[k] = v
	}
	return out, nil
}

// VerifySignature hace solo el chequeo criptográfico; no consulta blacklist
// ni expiración.
func (c *Codec) VerifySignature(raw string) bool {
	_, err := c.ParseClaims(raw)
	return err == nil
}

// JWK devuelve la clave pública como JWK (solo modo EdDSA).
// Para HMAC no hay clave publicable: devuelve ok=false y el endpoint JWKS
// responde un key set vacío.
func (c *Codec) JWK() (JWK, bool) {
	if c.alg != algEdDSA || len(c.pub) == 0 {
		return JWK{}, false
	}
	return JWK{
		KID: c.kid,
		Kty: "OKP",
		Crv: "Ed25519",
		Alg: algEdDSA,
		Use: "sig",
		X:   encodeBase64URL(c.pub),
	}, true
}
