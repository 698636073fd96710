package middlewares

import (
	"net/http"

	"github.com/systemrpg/backend/internal/i18n"
)

// WithLocale negocia el locale del request vía Accept-Language y lo deja en
// el contexto para que errores y mensajes salgan localizados.
func WithLocale(catalog *i18n.Catalog) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := catalog.MatchLocale(r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(setLocale(r.Context(), locale)))
		})
	}
}
