// Package router arma el árbol de rutas HTTP completo del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/systemrpg/backend/internal/http/controllers/auth"
	healthctrl "github.com/systemrpg/backend/internal/http/controllers/health"
	apperrors "github.com/systemrpg/backend/internal/http/errors"
	mw "github.com/systemrpg/backend/internal/http/middlewares"
	"github.com/systemrpg/backend/internal/metrics"
)

// Deps agrupa todo lo que el router necesita.
type Deps struct {
	Auth   *authctrl.Controller
	Health *healthctrl.Controller

	// AuthMiddleware es RequireAuth ya configurado (validator + catálogo).
	AuthMiddleware mw.Middleware
	// LoginRateLimit protege /login y /refresh; nil deshabilita.
	LoginRateLimit mw.Middleware
	// Locale negocia Accept-Language; corre antes que todo lo que localiza.
	Locale mw.Middleware
	// MetricsHandler sirve /actuator/metrics; nil deshabilita.
	MetricsHandler http.Handler

	AllowedOrigins []string
}

// New construye el http.Handler raíz con el stack de middlewares global.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	if deps.Locale != nil {
		r.Use(deps.Locale)
	}
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())
	r.Use(mw.WithCORS(deps.AllowedOrigins))
	r.Use(metrics.WithHTTP)
	r.Use(deps.AuthMiddleware)

	rateLimited := func(h http.HandlerFunc) http.Handler {
		if deps.LoginRateLimit == nil {
			return h
		}
		return deps.LoginRateLimit(h)
	}

	// Flujo de autenticación (paths públicos: el middleware de auth los
	// exime, cada handler valida lo suyo).
	r.Method(http.MethodPost, "/login", mw.Chain(rateLimited(deps.Auth.Login), mw.WithNoStore()))
	r.Method(http.MethodPost, "/refresh", mw.Chain(rateLimited(deps.Auth.Refresh), mw.WithNoStore()))
	r.Method(http.MethodPost, "/logout", mw.ChainFunc(deps.Auth.Logout, mw.WithNoStore()))
	r.Post("/introspect", deps.Auth.Introspect)
	r.Get("/.well-known/jwks.json", deps.Auth.JWKS)

	// Usuarios.
	r.Post("/users/register", deps.Auth.Register)
	r.Get("/users/check-username", deps.Auth.CheckUsername)
	r.Get("/users/check-email", deps.Auth.CheckEmail)

	// Rutas protegidas.
	r.Get("/me", deps.Auth.Me)

	// Actuator.
	r.Get("/actuator/health", deps.Health.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/actuator/metrics", deps.MetricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, req, apperrors.ErrNotFound)
	})

	return r
}
