// Package metrics define las métricas Prometheus del servicio. Viven en un
// package standalone para evitar ciclos de import entre auth y HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Auth
	tokenValidationsTotal *prometheus.CounterVec
	loginAttemptsTotal    *prometheus.CounterVec
	blacklistPrunedTotal  prometheus.Counter
	blacklistActive       prometheus.Gauge
	rateLimitRejectsTotal *prometheus.CounterVec
)

// Register inicializa y registra todas las métricas. Devuelve el handler para
// /actuator/metrics.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		tokenValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Validaciones de token por outcome",
		}, []string{"outcome"}) // ok|invalid|expired|revoked|subject_mismatch|wrong_token_type|missing_claim

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Intentos de login por resultado",
		}, []string{"result"}) // success|bad_credentials|inactive|error

		blacklistPrunedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_blacklist_pruned_total",
			Help: "Entradas de blacklist eliminadas por el prune periódico",
		})

		blacklistActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auth_blacklist_active_entries",
			Help: "Entradas de blacklist todavía vigentes",
		})

		rateLimitRejectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_rejects_total",
			Help: "Requests rechazadas por rate limiting",
		}, []string{"path"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			tokenValidationsTotal, loginAttemptsTotal,
			blacklistPrunedTotal, blacklistActive, rateLimitRejectsTotal,
		} {
			if err := registerCollector(reg, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}

	return promhttp.Handler(), nil
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// WithHTTP instrumenta requests HTTP (contadores, latencia, inflight).
func WithHTTP(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}

		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RecordTokenValidation registra el outcome de una validación.
func RecordTokenValidation(outcome string) {
	if tokenValidationsTotal != nil {
		tokenValidationsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordLoginAttempt registra el resultado de un login.
func RecordLoginAttempt(result string) {
	if loginAttemptsTotal != nil {
		loginAttemptsTotal.WithLabelValues(result).Inc()
	}
}

// RecordBlacklistPrune registra una pasada del prune periódico.
func RecordBlacklistPrune(removed int64, activeAfter int64) {
	if blacklistPrunedTotal != nil {
		blacklistPrunedTotal.Add(float64(removed))
	}
	if blacklistActive != nil && activeAfter >= 0 {
		blacklistActive.Set(float64(activeAfter))
	}
}

// RecordRateLimitReject registra un rechazo por rate limit.
func RecordRateLimitReject(path string) {
	if rateLimitRejectsTotal != nil {
		rateLimitRejectsTotal.WithLabelValues(normalizePath(path)).Inc()
	}
}

// normalizePath colapsa segmentos dinámicos (UUIDs, tokens, números) para
// acotar la cardinalidad de labels.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	if clean == "" || clean == "/" {
		return "/"
	}
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}

	segments := strings.Split(clean, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 {
		return true
	}
	if _, err := strconv.Atoi(seg); err == nil {
		return true
	}
	// UUIDs y fingerprints base64url largos.
	if len(seg) >= 24 {
		hyphens := strings.Count(seg, "-")
		if hyphens == 4 && len(seg) == 36 {
			return true
		}
		alnum := true
		for _, c := range seg {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
				alnum = false
				break
			}
		}
		if alnum {
			return true
		}
	}
	return false
}
