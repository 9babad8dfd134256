package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/taskhub/internal/auth"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
	_ "github.com/odyssey-erp/taskhub/testing"
)

type credentialRepo struct {
	user auth.User
}

func (c credentialRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if email != c.user.Email {
		return nil, shared.ErrNotFound
	}
	u := c.user
	return &u, nil
}

type singleUserGraph struct {
	account rbac.Account
}

func (g singleUserGraph) FindAccount(ctx context.Context, id int64) (rbac.Account, error) {
	if id != g.account.ID {
		return rbac.Account{}, rbac.ErrAccountMissing
	}
	return g.account, nil
}

func (g singleUserGraph) RoleNames(ctx context.Context, id int64) ([]string, error) {
	return []string{"user"}, nil
}

func (g singleUserGraph) PermissionNames(ctx context.Context, id int64) ([]string, error) {
	return nil, nil
}

func newAuthRouter(t *testing.T, loginLimit int) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte("handler-test-secret-0123456789ab"),
		Issuer: "taskhub",
		TTL:    time.Hour,
	}, auth.NewRedisRevocationStore(client))
	require.NoError(t, err)

	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := credentialRepo{user: auth.User{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHash: string(hashed)}}

	mw := rbac.Middleware{Resolver: rbac.NewResolver(tokens, singleUserGraph{account: rbac.Account{ID: 1, Name: "Alice", Email: "alice@example.com"}})}
	handler := auth.NewHandler(nil, auth.NewService(repo, tokens, nil, nil, bcrypt.MinCost), mw, loginLimit)

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return r
}

func postLogin(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newAuthRouter(t, 0)

	wrong := postLogin(h, `{"email":"alice@example.com","password":"wrongpass"}`)
	unknown := postLogin(h, `{"email":"ghost@example.com","password":"wrongpass"}`)

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("expected identical bodies, got %q and %q", wrong.Body.String(), unknown.Body.String())
	}
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, wrong.Body.String())

	bad := postLogin(h, `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestLoginMeLogoutFlow(t *testing.T) {
	h := newAuthRouter(t, 0)

	rec := postLogin(h, `{"email":"alice@example.com","password":"correctpass","remember":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token      string `json:"token"`
		Persistent bool   `json:"persistent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	assert.False(t, login.Persistent)

	call := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)
		return res
	}

	me := call(http.MethodGet, "/api/auth/me")
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"roles":["user"]`)
	assert.Contains(t, me.Body.String(), `"permissions":[]`)

	out := call(http.MethodPost, "/api/auth/logout")
	require.Equal(t, http.StatusOK, out.Code)

	again := call(http.MethodGet, "/api/auth/me")
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h := newAuthRouter(t, 2)
	for i := 0; i < 2; i++ {
		rec := postLogin(h, `{"email":"alice@example.com","password":"wrongpass"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := postLogin(h, `{"email":"alice@example.com","password":"wrongpass"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
