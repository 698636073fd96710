package middlewares

import (
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/systemrpg/backend/internal/http/errors"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/metrics"
	"github.com/systemrpg/backend/internal/observability/logger"
	"github.com/systemrpg/backend/internal/rate"
)

// WithRateLimit aplica el limiter con key IP+path y responde 429 localizado
// al excederse. Fail-open si el backend del limiter falla: un Redis caído no
// debe tirar el login.
func WithRateLimit(lim rate.Limiter, catalog *i18n.Catalog) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lim == nil {
				next.ServeHTTP(w, r)
				return
			}

			res, err := lim.Allow(r.Context(), rate.IPPathKey(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if res.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter/time.Second)+1))
			}
			metrics.RecordRateLimitReject(r.URL.Path)

			msg := catalog.Message(GetLocale(r.Context()), "error.rate.limited")
			apperrors.WriteError(w, r, apperrors.ErrTooManyRequests.WithMessage(msg))
		})
	}
}
