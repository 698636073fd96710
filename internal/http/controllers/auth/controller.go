// Package auth contiene los controllers del flujo de autenticación.
package auth

import (
	"net/http"

	dto "github.com/systemrpg/backend/internal/http/dto/auth"
	apperrors "github.com/systemrpg/backend/internal/http/errors"
	"github.com/systemrpg/backend/internal/http/helpers"
	mw "github.com/systemrpg/backend/internal/http/middlewares"
	svc "github.com/systemrpg/backend/internal/http/services/auth"
	"github.com/systemrpg/backend/internal/observability/logger"
)

// Controller maneja las rutas de autenticación y usuarios.
type Controller struct {
	service *svc.Service
}

// NewController crea el controller.
func NewController(service *svc.Service) *Controller {
	return &Controller{service: service}
}

// Login maneja POST /login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}

	resp, err := c.service.Login(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Logout maneja POST /logout
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh maneja POST /refresh
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}

	resp, err := c.service.Refresh(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Introspect maneja POST /introspect
func (c *Controller) Introspect(w http.ResponseWriter, r *http.Request) {
	var req dto.IntrospectRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.Introspect(r.Context(), req))
}

// JWKS maneja GET /.well-known/jwks.json
func (c *Controller) JWKS(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.service.JWKS())
}

// Register maneja POST /users/register
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apperrors.WriteError(w, r, err)
		return
	}

	info, err := c.service.Register(r.Context(), req)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, info)
}

// CheckUsername maneja GET /users/check-username?username=...
func (c *Controller) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		apperrors.WriteError(w, r, apperrors.ErrBadRequest.WithDetail("username query param required"))
		return
	}

	resp, err := c.service.UsernameAvailable(r.Context(), username)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// CheckEmail maneja GET /users/check-email?email=...
func (c *Controller) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		apperrors.WriteError(w, r, apperrors.ErrBadRequest.WithDetail("email query param required"))
		return
	}

	resp, err := c.service.EmailAvailable(r.Context(), email)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Me maneja GET /me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := mw.GetIdentity(r.Context())
	if !ok {
		// RequireAuth siempre corre antes en esta ruta; llegar acá sin
		// identidad es un bug de wiring.
		logger.From(r.Context()).Error("identity missing on protected route",
			logger.Layer("controller"),
			logger.Op("Controller.Me"),
		)
		apperrors.WriteError(w, r, apperrors.ErrUnauthorized)
		return
	}

	info, err := c.service.Me(r.Context(), identity)
	if err != nil {
		apperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, info)
}
