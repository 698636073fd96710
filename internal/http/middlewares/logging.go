package middlewares

import (
	"net/http"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/systemrpg/backend/internal/observability/logger"
)

// responseTap observa status y bytes de la respuesta sin alterarla.
type responseTap struct {
	http.ResponseWriter
	code       int
	written    int
	headerSent bool
}

func (t *responseTap) WriteHeader(code int) {
	if t.headerSent {
		return
	}
	t.code = code
	t.headerSent = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(b []byte) (int, error) {
	if !t.headerSent {
		t.code = http.StatusOK
		t.headerSent = true
	}
	n, err := t.ResponseWriter.Write(b)
	t.written += n
	return n, err
}

// WithLogging loguea cada request terminado (nivel según status) y deja en
// el contexto un logger scoped con request_id/method/path para que las capas
// de abajo logueen con la misma correlación.
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			tap := &responseTap{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(tap, r.WithContext(logger.ToContext(r.Context(), reqLog)))

			lvl := zapcore.InfoLevel
			msg := "request completed"
			switch {
			case tap.code >= 500:
				lvl, msg = zapcore.ErrorLevel, "request failed"
			case tap.code >= 400:
				lvl, msg = zapcore.WarnLevel, "request completed with client error"
			}

			reqLog.Log(lvl, msg,
				logger.Status(tap.code),
				logger.Bytes(tap.written),
				logger.DurationMs(time.Since(start).Milliseconds()),
			)
		})
	}
}
