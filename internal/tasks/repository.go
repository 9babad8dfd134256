package tasks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

var errTaskNotFound = shared.NewError(shared.ErrNotFound, "Task not found")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

var _ RepositoryPort = (*Repository)(nil)

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const taskColumns = `id, title, description, status, created_by, created_at, updated_at`

// ListTasks returns every task, newest first.
func (r *Repository) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Task])
}

// GetTask loads one task.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		return Task{}, err
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, errTaskNotFound
	}
	return task, err
}

// CreateTask inserts a task and returns the stored row.
func (r *Repository) CreateTask(ctx context.Context, in CreateInput, createdBy int64) (Task, error) {
	rows, err := r.db.Query(ctx, `INSERT INTO tasks (title, description, status, created_by)
VALUES ($1, $2, $3, $4) RETURNING `+taskColumns, in.Title, in.Description, in.Status, createdBy)
	if err != nil {
		return Task{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Task])
}

// UpdateTask applies the non-nil fields.
func (r *Repository) UpdateTask(ctx context.Context, id int64, in UpdateInput) (Task, error) {
	rows, err := r.db.Query(ctx, `UPDATE tasks SET
    title = COALESCE($2, title),
    description = COALESCE($3, description),
    status = COALESCE($4, status),
    updated_at = NOW()
WHERE id = $1 RETURNING `+taskColumns, id, in.Title, in.Description, in.Status)
	if err != nil {
		return Task{}, err
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, errTaskNotFound
	}
	return task, err
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
