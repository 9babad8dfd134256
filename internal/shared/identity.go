package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

// Identity is the request-scoped view of the caller, rebuilt on every request.
type Identity struct {
	UserID      int64         `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Roles       []string      `json:"roles"`
	Permissions PermissionSet `json:"permissions"`
}

// Can reports whether the identity holds p.
func (i *Identity) Can(p Permission) bool {
	return i != nil && i.Permissions.Has(p)
}

// NormalizeEmail trims and case-folds an email address for storage and lookup.
// Casers keep state, so each call builds its own.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
