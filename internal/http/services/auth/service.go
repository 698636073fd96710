// Package auth implementa el servicio de autenticación: login, logout,
// refresh, introspección y registro de usuarios.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authcore "github.com/systemrpg/backend/internal/auth"
	apperrors "github.com/systemrpg/backend/internal/http/errors"
	dto "github.com/systemrpg/backend/internal/http/dto/auth"
	"github.com/systemrpg/backend/internal/http/middlewares"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/metrics"
	"github.com/systemrpg/backend/internal/observability/logger"
	"github.com/systemrpg/backend/internal/security/token"
	"github.com/systemrpg/backend/internal/store/core"
)

// Config TTLs del par de tokens.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service orquesta codec, validator y repositorios.
type Service struct {
	codec      *jwt.Codec
	validator  *authcore.Validator
	users      core.UserRepository
	blacklist  core.BlacklistRepository
	catalog    *i18n.Catalog
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService crea el servicio con TTLs default de 15m/30d si faltan.
func NewService(codec *jwt.Codec, validator *authcore.Validator, users core.UserRepository, blacklist core.BlacklistRepository, catalog *i18n.Catalog, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Service{
		codec:      codec,
		validator:  validator,
		users:      users,
		blacklist:  blacklist,
		catalog:    catalog,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (s *Service) msg(ctx context.Context, key string) string {
	return s.catalog.Message(middlewares.GetLocale(ctx), key)
}

// Login autentica credenciales y emite el par access/refresh.
// Username inexistente y password incorrecta devuelven el mismo error.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	badCredentials := apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.credentials.invalid"))

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if core.IsNotFound(err) {
			metrics.RecordLoginAttempt("bad_credentials")
			return nil, badCredentials
		}
		metrics.RecordLoginAttempt("error")
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.From(ctx).Warn("login failed", logger.Username(req.Username))
		metrics.RecordLoginAttempt("bad_credentials")
		return nil, badCredentials
	}

	if !user.IsActive {
		logger.From(ctx).Warn("login attempt for inactive user", logger.Username(user.Username))
		metrics.RecordLoginAttempt("inactive")
		return nil, apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.user.inactive"))
	}

	loginAt := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		// No invalida el login: el timestamp es informativo.
		logger.From(ctx).Warn("update last login failed", logger.Err(err))
	} else {
		user.LastLoginAt = &loginAt
	}

	resp, err := s.issuePair(ctx, user)
	if err != nil {
		metrics.RecordLoginAttempt("error")
		return nil, err
	}

	logger.From(ctx).Info("login ok", logger.Username(user.Username), logger.UserID(user.ID.String()))
	metrics.RecordLoginAttempt("success")
	return resp, nil
}

// Refresh intercambia un refresh token válido por un par nuevo. El access
// token saliente, si viene en el request, se revoca (rotación): un refresh no
// debe dejar dos access tokens vivos.
func (s *Service) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.AuthResponse, error) {
	invalid := apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.refresh.token.invalid"))

	res := s.validator.Validate(ctx, req.RefreshToken, "", jwt.TypeRefresh)
	metrics.RecordTokenValidation(res.Outcome.String())
	if !res.OK() {
		logger.From(ctx).Warn("refresh rejected",
			logger.Outcome(res.Outcome.String()),
			logger.Token(token.Mask(req.RefreshToken)),
		)
		return nil, invalid
	}

	// Best-effort: si el access token viene roto no aborta el refresh.
	s.revokeIfPresent(ctx, req.AccessToken, "Access token invalidated during refresh")

	user, err := s.users.GetByID(ctx, res.Identity.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.user.not.found"))
		}
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.user.inactive"))
	}

	return s.issuePair(ctx, user)
}

// Logout revoca el access token presentado en el header Authorization.
func (s *Service) Logout(ctx context.Context, authHeader string) error {
	raw, ok := extractBearer(authHeader)
	if !ok {
		return apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.token.missing"))
	}

	res := s.validator.Validate(ctx, raw, "", jwt.TypeAccess)
	metrics.RecordTokenValidation(res.Outcome.String())
	if !res.OK() {
		logger.From(ctx).Warn("logout with invalid token",
			logger.Outcome(res.Outcome.String()),
			logger.Token(token.Mask(raw)),
		)
		return apperrors.ErrUnauthorized.WithMessage(s.msg(ctx, "auth.logout.error"))
	}

	if err := s.revokeToken(ctx, raw, res.Claims, "Logout", res.Identity); err != nil {
		logger.From(ctx).Error("logout revocation failed", logger.Err(err))
		return apperrors.ErrInternalServerError.WithMessage(s.msg(ctx, "auth.logout.error")).WithCause(err)
	}

	logger.From(ctx).Info("logout ok", logger.Username(res.Identity.Username))
	return nil
}

// Introspect devuelve el estado de un token: claims si autentica, motivo si
// no. Tolera el prefijo "Bearer " pegado al token.
func (s *Service) Introspect(ctx context.Context, req dto.IntrospectRequest) *dto.IntrospectResponse {
	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		return &dto.IntrospectResponse{Active: false, Error: s.msg(ctx, "auth.token.empty")}
	}
	raw = strings.TrimPrefix(raw, "Bearer ")

	res := s.validator.Validate(ctx, raw, "", jwt.TypeAccess)
	if res.Outcome == authcore.OutcomeWrongTokenType {
		// Los refresh tokens también son introspectables.
		res = s.validator.Validate(ctx, raw, "", jwt.TypeRefresh)
	}
	metrics.RecordTokenValidation(res.Outcome.String())

	if !res.OK() {
		return &dto.IntrospectResponse{
			Active: false,
			Error:  s.msg(ctx, res.Outcome.MessageKey()),
		}
	}
	return &dto.IntrospectResponse{Active: true, Claims: res.Claims}
}

// JWKS devuelve el key set público (vacío en modo HMAC).
func (s *Service) JWKS() jwt.JWKS {
	keys := []jwt.JWK{}
	if k, ok := s.codec.JWK(); ok {
		keys = append(keys, k)
	}
	return jwt.JWKS{Keys: keys}
}

// ---------------------------------------------------------------------------
// registro y disponibilidad
// ---------------------------------------------------------------------------

const minPasswordLen = 8

// Register da de alta un usuario con rol USER.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserInfo, error) {
	if fes := validateRegister(req); len(fes) > 0 {
		return nil, apperrors.ErrValidation.
			WithMessage(s.msg(ctx, "user.register.invalid")).
			WithFieldErrors(fes...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}

	user := &core.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Roles:        []string{"USER"},
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if core.IsConflict(err) {
			return nil, apperrors.ErrConflict.WithMessage(s.msg(ctx, "user.username.taken"))
		}
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}

	logger.From(ctx).Info("user registered", logger.Username(user.Username), logger.UserID(user.ID.String()))
	info := buildUserInfo(user, user.Roles)
	return &info, nil
}

// UsernameAvailable indica si el username está libre.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (*dto.AvailabilityResponse, error) {
	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	key := "user.username.available"
	if taken {
		key = "user.username.taken"
	}
	return &dto.AvailabilityResponse{Available: !taken, Message: s.msg(ctx, key)}, nil
}

// EmailAvailable indica si el email está libre.
func (s *Service) EmailAvailable(ctx context.Context, email string) (*dto.AvailabilityResponse, error) {
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	key := "user.email.available"
	if taken {
		key = "user.email.taken"
	}
	return &dto.AvailabilityResponse{Available: !taken, Message: s.msg(ctx, key)}, nil
}

// Me devuelve la proyección del usuario autenticado.
func (s *Service) Me(ctx context.Context, id authcore.Identity) (*dto.UserInfo, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, apperrors.ErrNotFound.WithMessage(s.msg(ctx, "auth.user.not.found"))
		}
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	info := buildUserInfo(user, user.Roles)
	return &info, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *Service) issuePair(ctx context.Context, user *core.User) (*dto.AuthResponse, error) {
	access, accessExp, err := s.codec.Issue(user.Username, user.ID, jwt.TypeAccess, user.Roles, s.accessTTL)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	refresh, _, err := s.codec.Issue(user.Username, user.ID, jwt.TypeRefresh, user.Roles, s.refreshTTL)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}

	info := buildUserInfo(user, user.Roles)
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		ExpiresAt:    accessExp,
		User:         &info,
	}, nil
}

// revokeIfPresent revoca un token saliente sin abortar el flujo si falla.
func (s *Service) revokeIfPresent(ctx context.Context, raw, reason string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	claims, err := s.codec.ParseClaims(raw)
	if err != nil {
		logger.From(ctx).Warn("stale access token unparseable during refresh",
			logger.Token(token.Mask(raw)),
		)
		return
	}
	var identity authcore.Identity
	if id, err := claims.UserID(); err == nil {
		identity.UserID = id
	}
	if err := s.revokeToken(ctx, raw, claims, reason, identity); err != nil && !core.IsConflict(err) {
		logger.From(ctx).Warn("stale access token revocation failed", logger.Err(err))
	}
}

// revokeToken inserta el fingerprint en la blacklist con el expiry del token.
// Duplicado cuenta como éxito: revocar dos veces es idempotente.
func (s *Service) revokeToken(ctx context.Context, raw string, claims jwt.Claims, reason string, identity authcore.Identity) error {
	exp, err := claims.ExpiresAt()
	if err != nil {
		exp = s.now().Add(s.refreshTTL)
	}

	entry := &core.BlacklistEntry{
		Fingerprint: token.Fingerprint(raw),
		ExpiresAt:   exp,
		Reason:      reason,
	}
	if identity.UserID != uuid.Nil {
		uid := identity.UserID
		entry.UserID = &uid
	}

	if err := s.blacklist.Add(ctx, entry); err != nil {
		if core.IsConflict(err) {
			return nil
		}
		return err
	}
	return nil
}

func extractBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

func validateRegister(req dto.RegisterRequest) []apperrors.FieldError {
	var fes []apperrors.FieldError
	if strings.TrimSpace(req.Username) == "" {
		fes = append(fes, apperrors.FieldError{Field: "username", Message: "required"})
	}
	if !strings.Contains(req.Email, "@") {
		fes = append(fes, apperrors.FieldError{Field: "email", Message: "invalid"})
	}
	if len(req.Password) < minPasswordLen {
		fes = append(fes, apperrors.FieldError{Field: "password", Message: "too short"})
	}
	return fes
}

func buildUserInfo(user *core.User, roles []string) dto.UserInfo {
	if roles == nil {
		roles = []string{}
	}
	return dto.UserInfo{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		Roles:           roles,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		LastLoginAt:     user.LastLoginAt,
	}
}
