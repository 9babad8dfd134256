package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// Repository reads and writes activity_logs.
type Repository interface {
	Insert(ctx context.Context, entry shared.AuditEntry) error
	List(ctx context.Context, filters Filters) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

var _ Repository = (*PGRepository)(nil)

// NewRepository constructs a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// Insert appends one entry.
func (r *PGRepository) Insert(ctx context.Context, entry shared.AuditEntry) error {
	var meta []byte
	if len(entry.Meta) > 0 {
		raw, err := json.Marshal(entry.Meta)
		if err != nil {
			return fmt.Errorf("audit: encode meta: %w", err)
		}
		meta = raw
	}
	severity := entry.Severity
	if severity == "" {
		severity = shared.SeverityInfo
	}
	_, err := r.db.Exec(ctx, `INSERT INTO activity_logs (user_id, action, meta, ip, resource_type, resource_id, severity)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ActorID, entry.Action, meta, nullIfEmpty(entry.IP), nullIfEmpty(entry.ResourceType), nullIfEmpty(entry.ResourceID), severity)
	return err
}

const selectEntry = `SELECT a.id, a.action, a.meta, a.ip, a.resource_type, a.resource_id, a.severity, a.created_at,
       u.id, u.name, u.email
FROM activity_logs a
LEFT JOIN users u ON u.id = a.user_id`

// List returns the newest entries first.
func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Entry, error) {
	rows, err := r.db.Query(ctx, selectEntry+`
WHERE ($1::text = '' OR a.action = $1)
  AND ($2::bigint IS NULL OR a.user_id = $2)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $3`, filters.Action, filters.UserID, filters.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns a single entry.
func (r *PGRepository) Get(ctx context.Context, id int64) (Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, selectEntry+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.NewError(shared.ErrNotFound, "Activity log entry not found")
		}
		return Entry{}, err
	}
	return entry, nil
}

// DeleteBefore removes entries created before cutoff.
func (r *PGRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e        Entry
		meta     []byte
		userID   *int64
		userName *string
		email    *string
	)
	if err := row.Scan(&e.ID, &e.Action, &meta, &e.IP, &e.ResourceType, &e.ResourceID, &e.Severity, &e.CreatedAt,
		&userID, &userName, &email); err != nil {
		return Entry{}, err
	}
	if len(meta) > 0 {
		e.Meta = json.RawMessage(meta)
	}
	if userID != nil {
		e.User = &UserRef{ID: *userID, Name: deref(userName), Email: deref(email)}
	}
	return e, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
