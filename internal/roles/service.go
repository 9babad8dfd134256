package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (int64, error)
	UpdateRole(ctx context.Context, id int64, name, description *string) error
	DeleteRole(ctx context.Context, id int64) (bool, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	audit shared.Auditor
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, audit: auditor}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a role; the name is required and unique.
func (s *Service) CreateRole(ctx context.Context, in Input) (Role, error) {
	name := trim(in.Name)
	if name == "" {
		return Role{}, shared.NewError(shared.ErrValidation, "Role name is required")
	}
	if err := shared.Validate(in); err != nil {
		return Role{}, err
	}
	id, err := s.repo.CreateRole(ctx, name, trim(in.Description))
	if err != nil {
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "role.created", map[string]any{"name": name}).On("role", id))
	return role, nil
}

// UpdateRole applies a partial update.
func (s *Service) UpdateRole(ctx context.Context, id int64, in Input) (Role, error) {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return Role{}, shared.NewError(shared.ErrValidation, "Role name cannot be empty")
		}
		in.Name = &n
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if err := shared.Validate(in); err != nil {
		return Role{}, err
	}
	if err := s.repo.UpdateRole(ctx, id, in.Name, in.Description); err != nil {
		return Role{}, fmt.Errorf("roles: update: %w", err)
	}
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "role.updated", map[string]any{"roleId": id}).On("role", id))
	return role, nil
}

// DeleteRole removes a role. Users keep their accounts but lose the role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	ok, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return fmt.Errorf("roles: delete: %w", err)
	}
	if !ok {
		return errRoleNotFound
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "role.deleted", map[string]any{"roleId": id}).On("role", id))
	return nil
}

// AssignPermission grants permissionID to the role.
func (s *Service) AssignPermission(ctx context.Context, roleID, permissionID int64) error {
	if permissionID <= 0 {
		return shared.NewError(shared.ErrValidation, "permissionId is required")
	}
	if err := s.repo.AttachPermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "role.permission.assigned", map[string]any{"roleId": roleID, "permissionId": permissionID}).On("role", roleID))
	return nil
}

// RemovePermission revokes permissionID from the role.
func (s *Service) RemovePermission(ctx context.Context, roleID, permissionID int64) error {
	if permissionID <= 0 {
		return shared.NewError(shared.ErrValidation, "permissionId is required")
	}
	if err := s.repo.DetachPermission(ctx, roleID, permissionID); err != nil {
		return fmt.Errorf("roles: detach permission: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "role.permission.removed", map[string]any{"roleId": roleID, "permissionId": permissionID}).On("role", roleID))
	return nil
}

func trim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
