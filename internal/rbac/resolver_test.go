package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

func TestResolvePermissionUnionAcrossRoles(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	g.rolePerms["viewer"] = []string{"view_users"}
	g.rolePerms["editor"] = []string{"view_users", "manage_tasks"}
	g.grant(1, "viewer")
	g.grant(1, "editor")

	r := NewResolver(stubTokens{"tok": 1}, g)
	id, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, []string{"editor", "viewer"}, id.Roles)
	assert.Equal(t, []string{"manage_tasks", "view_users"}, id.Permissions.Names())
	assert.Equal(t, []string{"account", "roles", "permissions"}, g.calls)
}

func TestResolveAddingRoleNeverRemovesPermission(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	g.rolePerms["viewer"] = []string{"view_users"}
	g.rolePerms["auditor"] = []string{"view_activity_log"}
	g.grant(1, "viewer")
	r := NewResolver(stubTokens{"tok": 1}, g)

	before, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	g.grant(1, "auditor")
	after, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)

	for _, p := range before.Permissions.Names() {
		assert.True(t, after.Permissions.Has(shared.Permission(p)), p)
	}
	assert.True(t, after.Permissions.Has(shared.PermViewActivityLog))
}

func TestResolveRevocationAppliesOnNextRequest(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	g.rolePerms["editor"] = []string{"manage_tasks"}
	g.rolePerms["viewer"] = []string{"view_users"}
	g.grant(1, "editor")
	g.grant(1, "viewer")
	r := NewResolver(stubTokens{"tok": 1}, g)

	id, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	require.True(t, id.Can(shared.PermManageTasks))

	g.revoke(1, "editor")
	id, err = r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, id.Can(shared.PermManageTasks))
	assert.True(t, id.Can(shared.PermViewUsers))
}

func TestResolveFailures(t *testing.T) {
	g := newMemGraph()
	g.addUser(1, "alice")
	r := NewResolver(stubTokens{"tok": 1, "ghost": 99}, g)

	_, err := r.Resolve(context.Background(), "bogus")
	assert.ErrorIs(t, err, shared.ErrInvalidToken)

	_, err = r.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, shared.ErrUnknownUser)

	g.failOn = "roles"
	_, err = r.Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, shared.ErrUnknownUser))
}

func TestResolveUserWithoutRoles(t *testing.T) {
	g := newMemGraph()
	g.addUser(2, "bob")
	r := NewResolver(stubTokens{"tok": 2}, g)

	id, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Empty(t, id.Roles)
	assert.Equal(t, 0, id.Permissions.Len())
}
