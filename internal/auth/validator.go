// Package auth contiene la decisión central de autenticación: dado un token
// presentado, ¿puede autenticar este request, ahora, para este propósito?
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/security/token"
	"github.com/systemrpg/backend/internal/store/core"
)

// Outcome es el resultado de una validación. Cualquier valor distinto de
// OutcomeOK es terminal: el validator nunca reintenta ni repara un token.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeInvalid: estructura rota, algoritmo no soportado o firma
	// adulterada. Los tres colapsan en uno para no filtrar cuál chequeo falló.
	OutcomeInvalid
	OutcomeExpired
	OutcomeRevoked
	OutcomeSubjectMismatch
	OutcomeWrongTokenType
	OutcomeMissingClaim
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeExpired:
		return "expired"
	case OutcomeRevoked:
		return "revoked"
	case OutcomeSubjectMismatch:
		return "subject_mismatch"
	case OutcomeWrongTokenType:
		return "wrong_token_type"
	case OutcomeMissingClaim:
		return "missing_claim"
	}
	return "unknown"
}

// MessageKey mapea el outcome a la key del catálogo i18n para el mensaje 401.
func (o Outcome) MessageKey() string {
	switch o {
	case OutcomeInvalid:
		return "auth.token.invalid"
	case OutcomeExpired:
		return "auth.token.expired"
	case OutcomeRevoked:
		return "auth.token.revoked"
	case OutcomeSubjectMismatch:
		return "auth.token.subject.mismatch"
	case OutcomeWrongTokenType:
		return "auth.token.type.invalid"
	case OutcomeMissingClaim:
		return "auth.token.claim.missing"
	}
	return "auth.token.invalid"
}

// Identity es el principal autenticado que viaja en el contexto del request.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Roles    []string
}

// HasRole verifica membresía de rol (sin prefijos).
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Result es la salida completa de una validación.
type Result struct {
	Outcome  Outcome
	Identity Identity
	Claims   jwt.Claims

	// Err acompaña outcomes no-OK con causa interna (timeout de storage,
	// claim rota). Va solo a logs, nunca al body de la respuesta.
	Err error
}

// OK indica que el token autentica.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

// Validator compone codec + blacklist.
type Validator struct {
	codec            *jwt.Codec
	blacklist        core.BlacklistRepository
	blacklistTimeout time.Duration
	now              func() time.Time
}

// NewValidator crea el validator. blacklistTimeout acota el lookup del hot
// path; vencido el plazo se falla cerrado.
func NewValidator(codec *jwt.Codec, blacklist core.BlacklistRepository, blacklistTimeout time.Duration) *Validator {
	if blacklistTimeout <= 0 {
		blacklistTimeout = 2 * time.Second
	}
	return &Validator{
		codec:            codec,
		blacklist:        blacklist,
		blacklistTimeout: blacklistTimeout,
		now:              time.Now,
	}
}

// Validate corre la máquina de estados completa sobre un token presentado.
//
// Orden de chequeos: firma/estructura, expiración, blacklist, consistencia de
// subject, tipo de token. expectedSubject vacío omite el chequeo de subject
// (el caso normal: el username viene del propio token). requiredType es
// obligatorio: recursos protegidos exigen ACCESS, el refresh exige REFRESH.
//
// Todo es puro salvo el lookup de blacklist, que es read-only y respeta el
// deadline; una validación abandonada no deja efectos persistidos.
func (v *Validator) Validate(ctx context.Context, raw string, expectedSubject string, requiredType jwt.TokenType) Result {
	claims, err := v.codec.ParseClaims(raw)
	if err != nil {
		return Result{Outcome: OutcomeInvalid, Err: err}
	}

	if claims.Expired(v.now()) {
		return Result{Outcome: OutcomeExpired, Claims: claims}
	}

	blCtx, cancel := context.WithTimeout(ctx, v.blacklistTimeout)
	defer cancel()
	revoked, err := v.blacklist.Contains(blCtx, token.Fingerprint(raw))
	if err != nil {
		// Storage caído o timeout: fallar cerrado, nunca aceptar.
		return Result{Outcome: OutcomeInvalid, Claims: claims, Err: err}
	}
	if revoked {
		return Result{Outcome: OutcomeRevoked, Claims: claims}
	}

	subject, err := claims.Subject()
	if err != nil {
		return Result{Outcome: OutcomeMissingClaim, Claims: claims, Err: err}
	}
	if expectedSubject != "" && subject != expectedSubject {
		return Result{Outcome: OutcomeSubjectMismatch, Claims: claims}
	}

	typ, err := claims.TokenType()
	if err != nil {
		return Result{Outcome: OutcomeMissingClaim, Claims: claims, Err: err}
	}
	if typ != requiredType {
		return Result{Outcome: OutcomeWrongTokenType, Claims: claims}
	}

	userID, err := claims.UserID()
	if err != nil {
		return Result{Outcome: OutcomeMissingClaim, Claims: claims, Err: err}
	}
	roles, err := claims.Roles()
	if err != nil {
		return Result{Outcome: OutcomeMissingClaim, Claims: claims, Err: err}
	}

	return Result{
		Outcome: OutcomeOK,
		Claims:  claims,
		Identity: Identity{
			UserID:   userID,
			Username: subject,
			Roles:    roles,
		},
	}
}
