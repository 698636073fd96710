package middlewares

import (
	"net/http"

	apperrors "github.com/systemrpg/backend/internal/http/errors"
	"github.com/systemrpg/backend/internal/observability/logger"
)

// WithRecover captura panics de handlers y responde 500 con el envelope
// estándar. El recover específico del path de autenticación vive en
// RequireAuth, que convierte panics en 401.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("handler panic",
						logger.Any("panic", rec),
						logger.Path(r.URL.Path),
					)
					apperrors.WriteError(w, r, apperrors.ErrInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
