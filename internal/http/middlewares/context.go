package middlewares

import (
	"context"

	"github.com/systemrpg/backend/internal/auth"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxIdentityKey guarda la Identity autenticada del request
	ctxIdentityKey ctxKey = "identity"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
	// ctxLocaleKey guarda el locale negociado vía Accept-Language
	ctxLocaleKey ctxKey = "locale"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithIdentity inyecta la identidad autenticada en el contexto.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// setLocale inyecta el locale del request (interno)
func setLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxLocaleKey, locale)
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por handlers/services)
// =================================================================================

// GetIdentity obtiene la identidad autenticada del contexto.
// ok=false si el request no pasó por RequireAuth (ruta pública).
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	if v := ctx.Value(ctxIdentityKey); v != nil {
		if id, ok := v.(auth.Identity); ok {
			return id, true
		}
	}
	return auth.Identity{}, false
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetLocale obtiene el locale negociado del contexto ("en" si no hay).
func GetLocale(ctx context.Context) string {
	if v := ctx.Value(ctxLocaleKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "en"
}
