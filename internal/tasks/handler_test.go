package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

type namedTokens map[string]int64

func (n namedTokens) VerifyToken(ctx context.Context, raw string) (int64, error) {
	id, ok := n[raw]
	if !ok {
		return 0, shared.ErrInvalidToken
	}
	return id, nil
}

// roleGraph lets a test grant and revoke the editor role between requests.
type roleGraph struct {
	mu     sync.Mutex
	editor map[int64]bool
}

func (g *roleGraph) FindAccount(ctx context.Context, id int64) (rbac.Account, error) {
	return rbac.Account{ID: id, Name: "u", Email: "u@example.com"}, nil
}

func (g *roleGraph) RoleNames(ctx context.Context, id int64) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editor[id] {
		return []string{"editor"}, nil
	}
	return []string{}, nil
}

func (g *roleGraph) PermissionNames(ctx context.Context, id int64) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editor[id] {
		return []string{"manage_tasks"}, nil
	}
	return nil, nil
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEditorGrantAndRevoke(t *testing.T) {
	graph := &roleGraph{editor: map[int64]bool{}}
	mw := rbac.Middleware{Resolver: rbac.NewResolver(namedTokens{"owner": 1, "other": 2}, graph)}
	h := NewHandler(nil, NewService(newMemRepo(), nil), mw)
	r := chi.NewRouter()
	r.Route("/api/tasks", h.MountRoutes)

	rec := call(r, http.MethodGet, "/api/tasks", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(r, http.MethodPost, "/api/tasks", "owner", `{"title":"Ship it"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(r, http.MethodPut, "/api/tasks/1", "other", `{"status":"done"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden: insufficient permissions"}`, rec.Body.String())

	graph.mu.Lock()
	graph.editor[2] = true
	graph.mu.Unlock()

	rec = call(r, http.MethodPut, "/api/tasks/1", "other", `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"done"`)

	graph.mu.Lock()
	graph.editor[2] = false
	graph.mu.Unlock()

	rec = call(r, http.MethodDelete, "/api/tasks/1", "other", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(r, http.MethodDelete, "/api/tasks/1", "owner", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Task deleted"}`, rec.Body.String())
}
