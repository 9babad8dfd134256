package audit

import (
	"context"
	"errors"
	"time"
)

// Service serves the read side of the activity log and its retention.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the activity log service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns at most ListLimit entries, newest first.
func (s *Service) List(ctx context.Context, filters Filters) ([]Entry, error) {
	if filters.Limit <= 0 || filters.Limit > ListLimit {
		filters.Limit = ListLimit
	}
	return s.repo.List(ctx, filters)
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// Prune deletes entries older than retention and reports how many went.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, errors.New("audit: retention must be positive")
	}
	return s.repo.DeleteBefore(ctx, s.now().Add(-retention))
}
