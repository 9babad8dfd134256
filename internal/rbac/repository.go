package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// GraphReader walks user -> roles -> permissions.
type GraphReader interface {
	FindAccount(ctx context.Context, userID int64) (Account, error)
	RoleNames(ctx context.Context, userID int64) ([]string, error)
	PermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// PermissionRepository persists permissions.
type PermissionRepository interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	UpdatePermission(ctx context.Context, id int64, name, description *string) (Permission, error)
	DeletePermission(ctx context.Context, id int64) (bool, error)
}

// PGRepository implements GraphReader and PermissionRepository on PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

var (
	_ GraphReader          = (*PGRepository)(nil)
	_ PermissionRepository = (*PGRepository)(nil)
)

// NewRepository constructs a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// ErrAccountMissing is returned by FindAccount when the user row is gone.
var ErrAccountMissing = errors.New("rbac: account missing")

// FindAccount loads the user behind a token subject.
func (r *PGRepository) FindAccount(ctx context.Context, userID int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, userID).Scan(&a.ID, &a.Name, &a.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountMissing
	}
	return a, err
}

// RoleNames lists role names assigned to the user.
func (r *PGRepository) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	return r.names(ctx, `SELECT r.name FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.name`, userID)
}

// PermissionNames lists the distinct permissions reachable through the user's roles.
func (r *PGRepository) PermissionNames(ctx context.Context, userID int64) ([]string, error) {
	return r.names(ctx, `SELECT DISTINCT p.name FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = $1
ORDER BY p.name`, userID)
}

func (r *PGRepository) names(ctx context.Context, query string, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := make([]Permission, 0)
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// CreatePermission inserts a permission.
func (r *PGRepository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx, `INSERT INTO permissions (name, description) VALUES ($1, $2)
RETURNING id, name, description, created_at`, name, description).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Permission{}, mapWriteError(err)
	}
	return p, nil
}

// UpdatePermission changes the provided fields.
func (r *PGRepository) UpdatePermission(ctx context.Context, id int64, name, description *string) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx, `UPDATE permissions
SET name = COALESCE($2, name), description = COALESCE($3, description)
WHERE id = $1
RETURNING id, name, description, created_at`, id, name, description).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, errPermissionNotFound
		}
		return Permission{}, mapWriteError(err)
	}
	return p, nil
}

// DeletePermission removes a permission; role grants cascade.
func (r *PGRepository) DeletePermission(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var (
	errPermissionNotFound = shared.NewError(shared.ErrNotFound, "Permission not found")
	errPermissionExists   = shared.NewError(shared.ErrConflict, "Permission already exists")
)

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return errPermissionExists
	}
	return err
}
