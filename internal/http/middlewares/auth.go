package middlewares

import (
	"net/http"
	"strings"

	"github.com/systemrpg/backend/internal/auth"
	apperrors "github.com/systemrpg/backend/internal/http/errors"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/metrics"
	"github.com/systemrpg/backend/internal/observability/logger"
	"github.com/systemrpg/backend/internal/security/token"
)

// =================================================================================
// AUTHENTICATION MIDDLEWARE
// =================================================================================

// bearerPrefix es literal y case-sensitive: cualquier otra cosa en el header
// cuenta como "sin credencial".
const bearerPrefix = "Bearer "

// PublicPrefixes son los paths exentos de autenticación (match exacto o por
// prefijo, con el context path ya removido).
var PublicPrefixes = []string{
	"/login",
	"/logout",
	"/users/register",
	"/users/check-username",
	"/users/check-email",
	"/actuator",
	"/refresh",
	"/introspect",
	"/swagger-ui",
	"/swagger-ui.html",
	"/swagger-resources",
	"/webjars",
	"/api-docs",
	"/v3/api-docs",
	"/favicon.ico",
	"/.well-known/jwks.json",
}

// AuthConfig configura RequireAuth.
type AuthConfig struct {
	Validator *auth.Validator
	Catalog   *i18n.Catalog
	// ContextPath se remueve del path antes de evaluar exenciones ("" = raíz).
	ContextPath string
	// PublicPrefixes override de la lista default (tests).
	PublicPrefixes []string
}

// RequireAuth valida Authorization: Bearer <token> en todo path no exento y
// deja la Identity en el contexto. Cualquier fallo (token ausente, inválido,
// expirado, revocado, panic interno) responde el mismo 401 localizado sin
// revelar cuál chequeo falló; el motivo real va solo a logs con el token
// enmascarado. El handler protegido nunca corre tras un rechazo.
func RequireAuth(cfg AuthConfig) Middleware {
	prefixes := cfg.PublicPrefixes
	if prefixes == nil {
		prefixes = PublicPrefixes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, cfg.ContextPath)
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			if isPublicPath(path, prefixes) {
				next.ServeHTTP(w, r)
				return
			}

			locale := GetLocale(r.Context())
			deny := func() {
				apperrors.WriteUnauthorized(w, cfg.Catalog.Message(locale, "error.unauthorized"))
			}

			// Un panic en el path de autenticación jamás debe dejar pasar el
			// request ni devolver 500: se colapsa en 401.
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic during authentication",
						logger.Any("panic", rec),
						logger.Path(path),
					)
					deny()
				}
			}()

			raw, ok := extractBearer(r.Header.Get("Authorization"))
			if !ok {
				logger.From(r.Context()).Debug("no bearer credential",
					logger.Path(path),
				)
				deny()
				return
			}

			res := cfg.Validator.Validate(r.Context(), raw, "", jwt.TypeAccess)
			metrics.RecordTokenValidation(res.Outcome.String())

			if !res.OK() {
				logger.From(r.Context()).Warn("token rejected",
					logger.Outcome(res.Outcome.String()),
					logger.Token(token.Mask(raw)),
					logger.Err(res.Err),
				)
				deny()
				return
			}

			ctx := r.Context()
			// Re-entrada: si ya hay identidad en el contexto no se pisa.
			if _, exists := GetIdentity(ctx); !exists {
				ctx = WithIdentity(ctx, res.Identity)
				ctx = logger.ToContext(ctx, logger.From(ctx).With(
					logger.UserID(res.Identity.UserID.String()),
					logger.Username(res.Identity.Username),
				))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer devuelve el token del header Authorization.
// Exige el prefijo literal "Bearer " seguido de un token no vacío.
func extractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return "", false
	}
	return raw, true
}

func isPublicPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
