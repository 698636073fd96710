package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID propaga el X-Request-ID entrante o genera un uuid nuevo.
// El ID termina en el header de respuesta y en el contexto, de donde lo
// levanta el logging.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if rid == "" || len(rid) > 128 {
				rid = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, rid)
			next.ServeHTTP(w, r.WithContext(setRequestID(r.Context(), rid)))
		})
	}
}
