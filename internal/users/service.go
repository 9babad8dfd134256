package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, roleIDs []int64) (int64, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, id int64, name, email, passwordHash *string) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	audit      shared.Auditor
	bcryptCost int
}

// NewService builds Service instance. A zero cost selects bcrypt.DefaultCost.
func NewService(repo RepositoryPort, auditor shared.Auditor, bcryptCost int) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, audit: auditor, bcryptCost: bcryptCost}
}

// CreateUser registers a new account. The caller in ctx, if any, is
// recorded as its creator.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = shared.NormalizeEmail(in.Email)
	if err := shared.Validate(in); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	id, err := s.repo.CreateUser(ctx, in.Name, in.Email, hash, dedupe(in.RoleIDs))
	if err != nil {
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("users: reload: %w", err)
	}

	var createdBy any
	if actor := shared.IdentityFromContext(ctx); actor != nil {
		createdBy = actor.UserID
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "user.created", map[string]any{
		"createdBy": createdBy,
		"roleIds":   in.RoleIDs,
	}).On("user", id))
	return user, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateUser applies a partial update.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return User{}, shared.NewError(shared.ErrValidation, "Name cannot be empty")
		}
		in.Name = &n
	}
	if in.Email != nil {
		e := shared.NormalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := shared.Validate(in); err != nil {
		return User{}, err
	}
	var hash *string
	if in.Password != nil {
		h, err := s.hash(*in.Password)
		if err != nil {
			return User{}, err
		}
		hash = &h
	}
	if err := s.repo.UpdateUser(ctx, id, in.Name, in.Email, hash); err != nil {
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("users: reload: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "user.updated", map[string]any{
		"userId":          id,
		"passwordChanged": hash != nil,
	}).On("user", id))
	return user, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	ok, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if !ok {
		return errUserNotFound
	}
	entry := shared.NewAuditEntry(ctx, "user.deleted", map[string]any{"targetUserId": id}).On("user", id)
	if entry.ActorID != nil && *entry.ActorID == id {
		// The actor row is gone; activity_logs.user_id must not reference it.
		entry.ActorID = nil
		entry.Meta["actorId"] = id
	}
	s.audit.Record(ctx, entry)
	return nil
}

// AssignRole grants roleID to the user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if roleID <= 0 {
		return shared.NewError(shared.ErrValidation, "roleId is required")
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "user.role.assigned", map[string]any{"userId": userID, "roleId": roleID}).On("user", userID))
	return nil
}

// RemoveRole revokes roleID from the user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) error {
	if roleID <= 0 {
		return shared.NewError(shared.ErrValidation, "roleId is required")
	}
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("users: remove role: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "user.role.removed", map[string]any{"userId": userID, "roleId": roleID}).On("user", userID))
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", shared.NewError(shared.ErrValidation, "Password must be at most 72 bytes")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(h), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id <= 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
