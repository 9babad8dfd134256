package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

var (
	errRoleExists    = shared.NewError(shared.ErrConflict, "Role name already exists")
	errRoleNotFound  = shared.NewError(shared.ErrNotFound, "Role not found")
	errGrantNotFound = shared.NewError(shared.ErrNotFound, "Role or permission not found")
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

var _ RepositoryPort = (*Repository)(nil)

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const selectRole = `SELECT r.id, r.name, r.description, r.created_at,
       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.id IS NOT NULL), '{}') AS permissions
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id`

// ListRoles returns all roles with aggregated permission names.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, selectRole+` GROUP BY r.id ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := make([]Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole loads a single role.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	role, err := scanRole(r.db.QueryRow(ctx, selectRole+` WHERE r.id = $1 GROUP BY r.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, errRoleNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`, name, description).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, errRoleExists
		}
		return 0, err
	}
	return id, nil
}

// UpdateRole changes the provided columns.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name, description *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE roles SET name = COALESCE($2, name), description = COALESCE($3, description) WHERE id = $1`,
		id, name, description)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errRoleExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return errRoleNotFound
	}
	return nil
}

// DeleteRole removes a role. User and permission links cascade.
func (r *Repository) DeleteRole(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AttachPermission grants a permission to the role; repeating it is a no-op.
func (r *Repository) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roleID, permissionID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return errGrantNotFound
		}
		return fmt.Errorf("roles: attach permission: %w", err)
	}
	return nil
}

// DetachPermission removes a grant; removing an absent grant is a no-op.
func (r *Repository) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.Permissions); err != nil {
		return Role{}, err
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return role, nil
}
