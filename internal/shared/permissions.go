package shared

import (
	"encoding/json"
	"sort"
	"strings"
)

// Permission names a capability granted through roles.
type Permission string

// Seeded permissions recognised by route guards.
const (
	PermManageUsers       Permission = "manage_users"
	PermViewUsers         Permission = "view_users"
	PermManageRoles       Permission = "manage_roles"
	PermManagePermissions Permission = "manage_permissions"
	PermViewActivityLog   Permission = "view_activity_log"
	PermManageTasks       Permission = "manage_tasks"
)

// PermissionSpec describes a seeded permission.
type PermissionSpec struct {
	Name        Permission
	Description string
}

// CoreScopes lists the permissions the platform seeds and guards on.
func CoreScopes() []PermissionSpec {
	return []PermissionSpec{
		{PermManageUsers, "Create, update and delete users"},
		{PermViewUsers, "View users"},
		{PermManageRoles, "Manage roles and their permissions"},
		{PermManagePermissions, "Manage permissions"},
		{PermViewActivityLog, "View activity log"},
		{PermManageTasks, "Update and delete any task"},
	}
}

// NormalizePermission trims and lowercases a permission name.
func NormalizePermission(name string) Permission {
	return Permission(strings.ToLower(strings.TrimSpace(name)))
}

// PermissionSet is an immutable set of held permissions.
type PermissionSet struct {
	items map[Permission]struct{}
}

// NewPermissionSet builds a set from raw names, dropping blanks and duplicates.
func NewPermissionSet(names ...string) PermissionSet {
	items := make(map[Permission]struct{}, len(names))
	for _, n := range names {
		p := NormalizePermission(n)
		if p == "" {
			continue
		}
		items[p] = struct{}{}
	}
	return PermissionSet{items: items}
}

// Has reports whether p is held.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.items[p]
	return ok
}

// HasAny reports whether at least one of perms is held. An empty list passes.
func (s PermissionSet) HasAny(perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is held.
func (s PermissionSet) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Len returns the number of held permissions.
func (s PermissionSet) Len() int { return len(s.items) }

// Names returns the held permissions sorted by name.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s.items))
	for p := range s.items {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted list of names.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}
