package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, in CreateInput, createdBy int64) (Task, error)
	UpdateTask(ctx context.Context, id int64, in UpdateInput) (Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)
}

// Service handles task business logic.
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

// ListTasks returns all tasks.
func (s *Service) ListTasks(ctx context.Context) ([]Task, error) {
	return s.repo.ListTasks(ctx)
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetTask(ctx, id)
}

// CreateTask stores a task owned by the calling identity.
func (s *Service) CreateTask(ctx context.Context, in CreateInput) (Task, error) {
	caller := shared.IdentityFromContext(ctx)
	if caller == nil {
		return Task{}, shared.ErrUnauthenticated
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if err := shared.Validate(in); err != nil {
		return Task{}, err
	}
	task, err := s.repo.CreateTask(ctx, in, caller.UserID)
	if err != nil {
		return Task{}, fmt.Errorf("tasks: create: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "task.created", map[string]any{"title": task.Title}).On("task", task.ID))
	return task, nil
}

// UpdateTask applies a partial update when the caller owns the task or holds
// manage_tasks.
func (s *Service) UpdateTask(ctx context.Context, id int64, in UpdateInput) (Task, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return Task{}, shared.NewError(shared.ErrValidation, "Title cannot be empty")
		}
		in.Title = &t
	}
	if err := shared.Validate(in); err != nil {
		return Task{}, err
	}
	if err := s.authorizeChange(ctx, id); err != nil {
		return Task{}, err
	}
	task, err := s.repo.UpdateTask(ctx, id, in)
	if err != nil {
		return Task{}, fmt.Errorf("tasks: update: %w", err)
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "task.updated", map[string]any{"status": task.Status}).On("task", id))
	return task, nil
}

// DeleteTask removes a task under the same rule as UpdateTask.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if err := s.authorizeChange(ctx, id); err != nil {
		return err
	}
	ok, err := s.repo.DeleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("tasks: delete: %w", err)
	}
	if !ok {
		return errTaskNotFound
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "task.deleted", nil).On("task", id))
	return nil
}

func (s *Service) authorizeChange(ctx context.Context, id int64) error {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	caller := shared.IdentityFromContext(ctx)
	if task.CreatedBy == nil {
		return rbac.Authorize(caller, shared.PermManageTasks)
	}
	return rbac.AuthorizeSelfOr(caller, *task.CreatedBy, shared.PermManageTasks)
}
