// Package seed installs the baseline permission catalogue, the admin and user
// roles and a default administrator account.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

const (
	// RoleAdmin carries every core permission.
	RoleAdmin = "admin"
	// RoleUser is the default role with no permissions.
	RoleUser = "user"
)

// Conn is what the seeder needs from the database.
type Conn interface {
	db.Beginner
}

// Options configures the default administrator account.
type Options struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	BcryptCost    int
}

// Result reports what a run inserted. Rows that already existed are not
// counted.
type Result struct {
	Permissions int64
	Roles       int64
	Grants      int64
	AdminID     int64
	AdminNew    bool
}

// Run seeds inside one transaction. It is safe to run repeatedly.
func Run(ctx context.Context, conn Conn, opts Options) (Result, error) {
	email := shared.NormalizeEmail(opts.AdminEmail)
	if email == "" {
		return Result{}, errors.New("seed: admin email is required")
	}
	if len(opts.AdminPassword) < 6 {
		return Result{}, errors.New("seed: admin password must be at least 6 characters")
	}
	if opts.AdminName == "" {
		opts.AdminName = "Administrator"
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), cost)
	if err != nil {
		return Result{}, fmt.Errorf("seed: hash password: %w", err)
	}

	var res Result
	err = db.WithTx(ctx, conn, func(tx pgx.Tx) error {
		for _, spec := range shared.CoreScopes() {
			tag, err := tx.Exec(ctx, `INSERT INTO permissions (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
				string(spec.Name), spec.Description)
			if err != nil {
				return fmt.Errorf("seed permission %s: %w", spec.Name, err)
			}
			res.Permissions += tag.RowsAffected()
		}

		for _, role := range []struct{ name, description string }{
			{RoleAdmin, "Full access"},
			{RoleUser, "Default role"},
		} {
			tag, err := tx.Exec(ctx, `INSERT INTO roles (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
				role.name, role.description)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role.name, err)
			}
			res.Roles += tag.RowsAffected()
		}

		tag, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id)
SELECT r.id, p.id FROM roles r CROSS JOIN permissions p
WHERE r.name = $1
ON CONFLICT DO NOTHING`, RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed admin grants: %w", err)
		}
		res.Grants = tag.RowsAffected()

		err = tx.QueryRow(ctx, `INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3)
ON CONFLICT (email) DO NOTHING RETURNING id`, opts.AdminName, email, string(hash)).Scan(&res.AdminID)
		switch {
		case err == nil:
			res.AdminNew = true
		case errors.Is(err, pgx.ErrNoRows):
			if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&res.AdminID); err != nil {
				return fmt.Errorf("seed load admin: %w", err)
			}
		default:
			return fmt.Errorf("seed admin user: %w", err)
		}

		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE name = $2
ON CONFLICT DO NOTHING`, res.AdminID, RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed admin role: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
