package auth

import "time"

// User represents the credential record used during login.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// UserSummary is the public part of the authenticated user.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResult is returned after a successful login. Persistent tells the
// client whether to keep the token across browser restarts.
type LoginResult struct {
	Token      string      `json:"token"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Persistent bool        `json:"persistent"`
	User       UserSummary `json:"user"`
}
