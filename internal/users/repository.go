package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// Conn is a connection that can both query and open transactions.
type Conn interface {
	db.DBTX
	db.Beginner
}

var (
	errEmailTaken     = shared.NewError(shared.ErrConflict, "Email already in use")
	errUserNotFound   = shared.NewError(shared.ErrNotFound, "User not found")
	errRoleNotFound   = shared.NewError(shared.ErrNotFound, "Role not found")
	errAssignNotFound = shared.NewError(shared.ErrNotFound, "User or role not found")
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn Conn
}

var _ RepositoryPort = (*Repository)(nil)

// NewRepository constructs a repository.
func NewRepository(conn Conn) *Repository {
	return &Repository{conn: conn}
}

const selectUser = `SELECT u.id, u.name, u.email, u.created_at, u.updated_at,
       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.id IS NOT NULL), '{}') AS roles
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN roles r ON r.id = ur.role_id`

// CreateUser inserts the account and its initial roles in one transaction.
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string, roleIDs []int64) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.conn, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			name, email, passwordHash).Scan(&id)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return errEmailTaken
			}
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, roleID); err != nil {
				if db.IsForeignKeyViolation(err) {
					return errRoleNotFound
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListUsers returns all users with their role names.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.conn.Query(ctx, selectUser+` GROUP BY u.id ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser loads a single user.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, selectUser+` WHERE u.id = $1 GROUP BY u.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

// UpdateUser changes the provided columns.
func (r *Repository) UpdateUser(ctx context.Context, id int64, name, email, passwordHash *string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users
SET name = COALESCE($2, name),
    email = COALESCE($3, email),
    password_hash = COALESCE($4, password_hash),
    updated_at = NOW()
WHERE id = $1`, id, name, email, passwordHash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errUserNotFound
	}
	return nil
}

// DeleteUser removes the account. Role links cascade and activity entries keep
// a null actor.
func (r *Repository) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AssignRole links a role; repeating it is a no-op.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roleID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errAssignNotFound
		}
		return fmt.Errorf("users: assign role: %w", err)
	}
	return nil
}

// RemoveRole unlinks a role; removing an absent link is a no-op.
func (r *Repository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.Roles); err != nil {
		return User{}, err
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}
