package roles

import "time"

// Role represents a role with the names of the permissions it carries.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input carries create and update fields. Nil fields are left unchanged on
// update.
type Input struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// PermissionAssignment is the body of permission assign/remove requests.
type PermissionAssignment struct {
	PermissionID int64 `json:"permissionId"`
}
