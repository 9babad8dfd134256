package users

import "time"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// MaxPasswordBytes is the bcrypt input limit. The max=72 tag counts runes, so
// multibyte passwords are also checked against it before hashing.
const MaxPasswordBytes = 72

// User represents a user account with its role names.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries fields for a new account. RoleIDs is honoured only on
// the admin surface.
type CreateInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	RoleIDs  []int64 `json:"role_ids"`
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// RoleAssignment is the body of role assign/remove requests.
type RoleAssignment struct {
	RoleID int64 `json:"roleId"`
}
