package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/systemrpg/backend/internal/auth"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/security/token"
	"github.com/systemrpg/backend/internal/store/core"
	"github.com/systemrpg/backend/internal/store/memory"
)

type authFixture struct {
	codec     *jwt.Codec
	blacklist core.BlacklistRepository
	handler   http.Handler
	hits      *int
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	catalog, err := i18n.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	bl := memory.New().Blacklist()
	validator := auth.NewValidator(codec, bl, time.Second)

	hits := 0
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	mw := RequireAuth(AuthConfig{Validator: validator, Catalog: catalog})
	return &authFixture{
		codec:     codec,
		blacklist: bl,
		handler:   mw(protected),
		hits:      &hits,
	}
}

func (f *authFixture) issue(t *testing.T, typ jwt.TokenType, ttl time.Duration) string {
	t.Helper()
	raw, _, err := f.codec.Issue("alice", uuid.New(), typ, []string{"USER"}, ttl)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return raw
}

func do(h http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", path, nil)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func assertUnauthorizedBody(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body struct {
		Error     string `json:"error"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", body.Error)
	}
	if body.Message == "" {
		t.Error("message should not be empty")
	}
	if body.Timestamp == 0 {
		t.Error("timestamp should be epoch millis")
	}
}

func TestPublicPathSkipsValidation(t *testing.T) {
	f := newAuthFixture(t)

	// Sin header y con header basura: ambos pasan en paths públicos.
	for _, h := range []string{"", "Basic dXNlcjpwYXNz"} {
		w := do(f.handler, "/login", h)
		if w.Code != http.StatusOK {
			t.Fatalf("public path got %d", w.Code)
		}
	}
	if *f.hits != 2 {
		t.Fatalf("handler hits = %d, want 2", *f.hits)
	}
}

func TestMissingCredentialIs401(t *testing.T) {
	f := newAuthFixture(t)

	for name, header := range map[string]string{
		"no header":    "",
		"basic auth":   "Basic dXNlcjpwYXNz",
		"empty bearer": "Bearer ",
		"lowercase":    "bearer tok123",
	} {
		w := do(f.handler, "/groups", header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, w.Code)
		}
	}
	if *f.hits != 0 {
		t.Fatal("protected handler must not run")
	}
}

func TestValidTokenSetsIdentity(t *testing.T) {
	catalog, err := i18n.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	validator := auth.NewValidator(codec, memory.New().Blacklist(), time.Second)

	userID := uuid.New()
	raw, _, err := codec.Issue("alice", userID, jwt.TypeAccess, []string{"USER", "GM"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.Identity
	var had bool
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, had = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	h := RequireAuth(AuthConfig{Validator: validator, Catalog: catalog})(protected)
	w := do(h, "/groups", "Bearer "+raw)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if !had {
		t.Fatal("identity missing from context")
	}
	if got.Username != "alice" || got.UserID != userID {
		t.Errorf("identity = %+v", got)
	}
	if !got.HasRole("GM") {
		t.Error("expected GM role")
	}
}

func TestRevokedAndExpiredAre401(t *testing.T) {
	f := newAuthFixture(t)

	revoked := f.issue(t, jwt.TypeAccess, time.Minute)
	err := f.blacklist.Add(context.Background(), &core.BlacklistEntry{
		Fingerprint: token.Fingerprint(revoked),
		ExpiresAt:   time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("blacklist add: %v", err)
	}

	assertUnauthorizedBody(t, do(f.handler, "/groups", "Bearer "+revoked))
	assertUnauthorizedBody(t, do(f.handler, "/groups", "Bearer "+f.issue(t, jwt.TypeAccess, -time.Second)))
	assertUnauthorizedBody(t, do(f.handler, "/groups", "Bearer "+f.issue(t, jwt.TypeRefresh, time.Minute)))
	if *f.hits != 0 {
		t.Fatal("protected handler must not run")
	}
}

func TestExistingIdentityNotOverwritten(t *testing.T) {
	catalog, err := i18n.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	validator := auth.NewValidator(codec, memory.New().Blacklist(), time.Second)

	raw, _, err := codec.Issue("alice", uuid.New(), jwt.TypeAccess, nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	pre := auth.Identity{Username: "preexisting"}
	var got auth.Identity
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetIdentity(r.Context())
	})
	h := RequireAuth(AuthConfig{Validator: validator, Catalog: catalog})(protected)

	r := httptest.NewRequest("GET", "/groups", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	r = r.WithContext(WithIdentity(r.Context(), pre))
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got.Username != "preexisting" {
		t.Errorf("identity overwritten: %+v", got)
	}
}

type panickingBlacklist struct{}

func (panickingBlacklist) Add(context.Context, *core.BlacklistEntry) error { panic("boom") }
func (panickingBlacklist) Contains(context.Context, string) (bool, error)  { panic("boom") }
func (panickingBlacklist) PruneExpired(context.Context, time.Time) (int64, error) {
	panic("boom")
}
func (panickingBlacklist) CountActive(context.Context, time.Time) (int64, error) {
	panic("boom")
}

func TestInternalPanicFailsClosedAs401(t *testing.T) {
	catalog, err := i18n.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	validator := auth.NewValidator(codec, panickingBlacklist{}, time.Second)

	raw, _, err := codec.Issue("alice", uuid.New(), jwt.TypeAccess, nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ran := false
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })
	h := RequireAuth(AuthConfig{Validator: validator, Catalog: catalog})(protected)

	w := do(h, "/groups", "Bearer "+raw)
	assertUnauthorizedBody(t, w)
	if ran {
		t.Fatal("handler ran after authentication panic")
	}
}

func TestContextPathStripping(t *testing.T) {
	catalog, _ := i18n.Load()
	codec := jwt.NewHMACCodec("test-secret-at-least-32-bytes-long!!")
	validator := auth.NewValidator(codec, memory.New().Blacklist(), time.Second)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	h := RequireAuth(AuthConfig{
		Validator:   validator,
		Catalog:     catalog,
		ContextPath: "/api",
	})(ok)

	// /api/login -> /login: público.
	if w := do(h, "/api/login", ""); w.Code != http.StatusOK {
		t.Fatalf("context-path public route got %d", w.Code)
	}
	// /api/groups -> /groups: protegido.
	if w := do(h, "/api/groups", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("context-path protected route got %d", w.Code)
	}
}
