package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

// Service manages the permission catalogue.
type Service struct {
	repo  PermissionRepository
	audit shared.Auditor
}

// NewService constructs a Service. A nil auditor discards entries.
func NewService(repo PermissionRepository, auditor shared.Auditor) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	return &Service{repo: repo, audit: auditor}
}

// ListPermissions returns all permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission inserts a new permission. Names are stored normalized.
func (s *Service) CreatePermission(ctx context.Context, in PermissionInput) (Permission, error) {
	name := ""
	if in.Name != nil {
		name = string(shared.NormalizePermission(*in.Name))
	}
	if name == "" {
		return Permission{}, shared.NewError(shared.ErrValidation, "Permission name is required")
	}
	perm, err := s.repo.CreatePermission(ctx, name, trimmed(in.Description))
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: create permission: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "permission.created", map[string]any{"name": perm.Name}).On("permission", perm.ID))
	return perm, nil
}

// UpdatePermission changes name and/or description.
func (s *Service) UpdatePermission(ctx context.Context, id int64, in PermissionInput) (Permission, error) {
	var name *string
	if in.Name != nil {
		n := string(shared.NormalizePermission(*in.Name))
		if n == "" {
			return Permission{}, shared.NewError(shared.ErrValidation, "Permission name cannot be empty")
		}
		name = &n
	}
	var desc *string
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		desc = &d
	}
	perm, err := s.repo.UpdatePermission(ctx, id, name, desc)
	if err != nil {
		return Permission{}, fmt.Errorf("rbac: update permission: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "permission.updated", map[string]any{"permissionId": id}).On("permission", id))
	return perm, nil
}

// DeletePermission removes a permission; role grants referencing it cascade.
func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	ok, err := s.repo.DeletePermission(ctx, id)
	if err != nil {
		return fmt.Errorf("rbac: delete permission: %w", err)
	}
	if !ok {
		return errPermissionNotFound
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "permission.deleted", map[string]any{"permissionId": id}).On("permission", id))
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
