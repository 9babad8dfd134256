package auth

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

type stubRepo struct {
	users map[string]*User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func newStubRepo(t *testing.T, users ...User) *stubRepo {
	t.Helper()
	repo := &stubRepo{users: map[string]*User{}}
	for i := range users {
		u := users[i]
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.PasswordHash), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		u.PasswordHash = string(hashed)
		repo.users[u.Email] = &u
	}
	return repo
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
}

func (a *recordingAuditor) Record(ctx context.Context, e shared.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

type loginCounter map[string]int

func (c loginCounter) ObserveLogin(result string) { c[result]++ }
