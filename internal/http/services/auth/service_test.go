package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authcore "github.com/systemrpg/backend/internal/auth"
	apperrors "github.com/systemrpg/backend/internal/http/errors"
	dto "github.com/systemrpg/backend/internal/http/dto/auth"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/security/token"
	"github.com/systemrpg/backend/internal/store/core"
	"github.com/systemrpg/backend/internal/store/memory"
)

type fixture struct {
	svc       *Service
	codec     *jwt.Codec
	users     core.UserRepository
	blacklist core.BlacklistRepository
	validator *authcore.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := i18n.Load()
	require.NoError(t, err)

	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	st := memory.New()
	validator := authcore.NewValidator(codec, st.Blacklist(), time.Second)

	svc := NewService(codec, validator, st.Users(), st.Blacklist(), catalog, Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	return &fixture{
		svc:       svc,
		codec:     codec,
		users:     st.Users(),
		blacklist: st.Blacklist(),
		validator: validator,
	}
}

func (f *fixture) seedUser(t *testing.T, username, password string, active bool) *core.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &core.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Roles:        []string{"USER"},
		IsActive:     active,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "alice", "s3cretpass", true)

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "alice", Password: "s3cretpass",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.NotNil(t, resp.User.LastLoginAt)

	// El access token emitido autentica.
	res := f.validator.Validate(context.Background(), resp.AccessToken, "", jwt.TypeAccess)
	assert.True(t, res.OK())
	assert.Equal(t, "alice", res.Identity.Username)

	// El refresh token no sirve como access.
	res = f.validator.Validate(context.Background(), resp.RefreshToken, "", jwt.TypeAccess)
	assert.Equal(t, authcore.OutcomeWrongTokenType, res.Outcome)
}

func TestLoginBadCredentialsIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)

	_, errWrongPass := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "alice", Password: "nope",
	})
	_, errNoUser := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "ghost", Password: "nope",
	})

	require.Error(t, errWrongPass)
	require.Error(t, errNoUser)
	// Mismo mensaje para password incorrecta y usuario inexistente.
	assert.Equal(t, errWrongPass.(*apperrors.AppError).Message, errNoUser.(*apperrors.AppError).Message)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "bob", "s3cretpass", false)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "bob", Password: "s3cretpass",
	})
	require.Error(t, err)
	assert.Equal(t, 401, err.(*apperrors.AppError).HTTPStatus)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)

	resp, err := f.svc.Login(context.Background(), dto.LoginRequest{
		Username: "alice", Password: "s3cretpass",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), "Bearer "+resp.AccessToken))

	res := f.validator.Validate(context.Background(), resp.AccessToken, "", jwt.TypeAccess)
	assert.Equal(t, authcore.OutcomeRevoked, res.Outcome)

	// Segundo logout con el mismo token: ya revocado, 401.
	err = f.svc.Logout(context.Background(), "Bearer "+resp.AccessToken)
	require.Error(t, err)
}

func TestRefreshRotatesPair(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, dto.RefreshRequest{
		RefreshToken: login.RefreshToken,
		AccessToken:  login.AccessToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)

	// El access token viejo quedó revocado por la rotación.
	revoked, err := f.blacklist.Contains(ctx, token.Fingerprint(login.AccessToken))
	require.NoError(t, err)
	assert.True(t, revoked)

	// El nuevo access autentica.
	res := f.validator.Validate(ctx, refreshed.AccessToken, "", jwt.TypeAccess)
	assert.True(t, res.OK())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: login.AccessToken})
	require.Error(t, err)
	assert.Equal(t, 401, err.(*apperrors.AppError).HTTPStatus)
}

func TestRefreshToleratesBrokenAccessToken(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, dto.RefreshRequest{
		RefreshToken: login.RefreshToken,
		AccessToken:  "garbage-token",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestIntrospect(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice", "s3cretpass", true)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	// Activo, con claims y tolerando el prefijo Bearer.
	resp := f.svc.Introspect(ctx, dto.IntrospectRequest{Token: "Bearer " + login.AccessToken})
	assert.True(t, resp.Active)
	assert.Equal(t, "alice", resp.Claims["sub"])
	assert.Empty(t, resp.Error)

	// Refresh token también es introspectable.
	resp = f.svc.Introspect(ctx, dto.IntrospectRequest{Token: login.RefreshToken})
	assert.True(t, resp.Active)

	// Vacío.
	resp = f.svc.Introspect(ctx, dto.IntrospectRequest{Token: "  "})
	assert.False(t, resp.Active)
	assert.NotEmpty(t, resp.Error)

	// Revocado.
	require.NoError(t, f.svc.Logout(ctx, "Bearer "+login.AccessToken))
	resp = f.svc.Introspect(ctx, dto.IntrospectRequest{Token: login.AccessToken})
	assert.False(t, resp.Active)
	assert.NotEmpty(t, resp.Error)

	// Basura.
	resp = f.svc.Introspect(ctx, dto.IntrospectRequest{Token: "xxx.yyy.zzz"})
	assert.False(t, resp.Active)
}

func TestRegisterAndAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.svc.Register(ctx, dto.RegisterRequest{
		Username:  "carol",
		Email:     "carol@example.com",
		Password:  "longenoughpass",
		FirstName: "Carol",
		LastName:  "Dias",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, info.Roles)
	assert.True(t, info.IsActive)
	assert.False(t, info.IsEmailVerified)

	// Duplicado.
	_, err = f.svc.Register(ctx, dto.RegisterRequest{
		Username: "carol", Email: "other@example.com", Password: "longenoughpass",
	})
	require.Error(t, err)
	assert.Equal(t, 409, err.(*apperrors.AppError).HTTPStatus)

	// Validación.
	_, err = f.svc.Register(ctx, dto.RegisterRequest{Username: "", Email: "bad", Password: "x"})
	require.Error(t, err)
	appErr := err.(*apperrors.AppError)
	assert.Equal(t, 400, appErr.HTTPStatus)
	assert.Len(t, appErr.FieldErrors, 3)

	avail, err := f.svc.UsernameAvailable(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, avail.Available)

	avail, err = f.svc.EmailAvailable(ctx, "free@example.com")
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestJWKSEmptyForHMAC(t *testing.T) {
	f := newFixture(t)
	jwks := f.svc.JWKS()
	assert.NotNil(t, jwks.Keys)
	assert.Len(t, jwks.Keys, 0)
}
