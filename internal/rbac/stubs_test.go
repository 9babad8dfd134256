package rbac

import (
	"context"
	"sort"
	"sync"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

type stubTokens map[string]int64

func (s stubTokens) VerifyToken(ctx context.Context, raw string) (int64, error) {
	id, ok := s[raw]
	if !ok {
		return 0, shared.ErrInvalidToken
	}
	return id, nil
}

// memGraph keeps user->roles->permissions in memory and counts lookups.
type memGraph struct {
	mu        sync.Mutex
	accounts  map[int64]Account
	userRoles map[int64]map[string]struct{}
	rolePerms map[string][]string
	calls     []string
	failOn    string
}

func newMemGraph() *memGraph {
	return &memGraph{
		accounts:  map[int64]Account{},
		userRoles: map[int64]map[string]struct{}{},
		rolePerms: map[string][]string{},
	}
}

func (g *memGraph) addUser(id int64, name string) {
	g.accounts[id] = Account{ID: id, Name: name, Email: name + "@example.com"}
}

func (g *memGraph) grant(userID int64, role string) {
	if g.userRoles[userID] == nil {
		g.userRoles[userID] = map[string]struct{}{}
	}
	g.userRoles[userID][role] = struct{}{}
}

func (g *memGraph) revoke(userID int64, role string) {
	delete(g.userRoles[userID], role)
}

func (g *memGraph) FindAccount(ctx context.Context, userID int64) (Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "account")
	if g.failOn == "account" {
		return Account{}, context.DeadlineExceeded
	}
	a, ok := g.accounts[userID]
	if !ok {
		return Account{}, ErrAccountMissing
	}
	return a, nil
}

func (g *memGraph) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "roles")
	if g.failOn == "roles" {
		return nil, context.DeadlineExceeded
	}
	out := make([]string, 0, len(g.userRoles[userID]))
	for r := range g.userRoles[userID] {
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}

func (g *memGraph) PermissionNames(ctx context.Context, userID int64) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "permissions")
	var out []string
	for r := range g.userRoles[userID] {
		out = append(out, g.rolePerms[r]...)
	}
	return out, nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
}

func (a *recordingAuditor) Record(ctx context.Context, e shared.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}
