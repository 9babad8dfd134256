package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

type denialCounter map[string]int

func (d denialCounter) ObserveDenied(p string) { d[p]++ }

func newTestRouter(g *memGraph, tokens stubTokens, denials denialCounter) http.Handler {
	mw := Middleware{Resolver: NewResolver(tokens, g), Denials: denials}
	ok := func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, shared.IdentityFromContext(r.Context()))
	}
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Get("/me", ok)
		r.With(mw.Require(shared.PermViewUsers)).Get("/users", ok)
		r.With(mw.RequireSelfOr("id", shared.PermManageUsers)).Put("/users/{id}", ok)
		r.With(mw.RequireSelfOr("id", shared.PermManageUsers)).Delete("/users/{id}", ok)
	})
	return r
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateRejectsMissingAndInvalidTokens(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	h := newTestRouter(g, stubTokens{"tok": 1, "ghost": 42}, denialCounter{})

	rec := serve(h, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/me", "nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/me", "ghost")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/me", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
}

func TestRequireForbidsWithoutPermission(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	g.addUser(2, "bob")
	g.rolePerms["viewer"] = []string{"view_users"}
	g.grant(1, "viewer")
	denials := denialCounter{}
	h := newTestRouter(g, stubTokens{"alice": 1, "bob": 2}, denials)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/users", "alice").Code)

	rec := serve(h, http.MethodGet, "/users", "bob")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden: insufficient permissions"}`, rec.Body.String())
	assert.Equal(t, 1, denials["view_users"])
}

func TestSelfServiceException(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	g.addUser(2, "bob")
	g.addUser(3, "root")
	g.rolePerms["admin"] = []string{"manage_users"}
	g.grant(3, "admin")
	h := newTestRouter(g, stubTokens{"alice": 1, "root": 3}, denialCounter{})

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusOK, serve(h, method, "/users/1", "alice").Code, method+" self")
		assert.Equal(t, http.StatusForbidden, serve(h, method, "/users/2", "alice").Code, method+" other")
		assert.Equal(t, http.StatusOK, serve(h, method, "/users/2", "root").Code, method+" admin")
	}
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPut, "/users/abc", "alice").Code)
}

func TestScenarioGrantThenRevokeManageTasks(t *testing.T) {
	g := newMemGraph()
	g.addUser(2, "bob")
	g.rolePerms["editor"] = []string{"manage_tasks"}
	r := NewResolver(stubTokens{"bob": 2}, g)

	id, err := r.Resolve(t.Context(), "bob")
	require.NoError(t, err)
	assert.ErrorIs(t, Authorize(id, shared.PermManageTasks), shared.ErrForbidden)

	g.grant(2, "editor")
	id, err = r.Resolve(t.Context(), "bob")
	require.NoError(t, err)
	assert.NoError(t, Authorize(id, shared.PermManageTasks))

	g.revoke(2, "editor")
	id, err = r.Resolve(t.Context(), "bob")
	require.NoError(t, err)
	assert.ErrorIs(t, Authorize(id, shared.PermManageTasks), shared.ErrForbidden)
}

func TestAuthorizeWithoutIdentity(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, shared.PermViewUsers), shared.ErrUnauthenticated)
	assert.ErrorIs(t, AuthorizeSelfOr(nil, 1, shared.PermManageUsers), shared.ErrUnauthenticated)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":  {"abc", true},
		"bearer  abc": {"abc", true},
		"Basic abc":   {"", false},
		"Bearer ":     {"", false},
		"":            {"", false},
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		got, ok := BearerToken(req)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, got, header)
	}
}
