package rbac

import "time"

// Permission represents an atomic capability stored in the permissions table.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Account is the minimal user record the resolver needs.
type Account struct {
	ID    int64
	Name  string
	Email string
}

// PermissionInput carries create and update fields. Nil fields are left as is
// on update.
type PermissionInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
