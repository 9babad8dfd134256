package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/taskhub/internal/observability"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// LoginObserver counts login outcomes.
type LoginObserver interface {
	ObserveLogin(result string)
}

// Service handles authentication operations.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	audit    shared.Auditor
	logins   LoginObserver
	validate *validator.Validate

	bcryptCost    int
	dummyHashOnce sync.Once
	dummyHash     []byte
}

// NewService creates auth service. auditor and logins may be nil. bcryptCost
// must match the cost stored password hashes use; zero selects
// bcrypt.DefaultCost.
func NewService(repo Repository, tokens *TokenManager, auditor shared.Auditor, logins LoginObserver, bcryptCost int) *Service {
	if auditor == nil {
		auditor = shared.NopAuditor{}
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		audit:      auditor,
		logins:     logins,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
	}
}

func (s *Service) placeholderHash() []byte {
	s.dummyHashOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskhub-placeholder"), s.bcryptCost)
	})
	return s.dummyHash
}

// compareDummy spends the same bcrypt work as a real comparison so unknown
// emails cannot be told apart by response time.
func (s *Service) compareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	req.Email = shared.NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return LoginResult{}, shared.NewError(shared.ErrValidation, "Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		s.compareDummy(req.Password)
		return LoginResult{}, s.rejected(ctx, req.Email)
	case err != nil:
		return LoginResult{}, fmt.Errorf("auth: find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, s.rejected(ctx, req.Email)
	}

	issued, err := s.tokens.Issue(user.ID, user.Email, req.Remember)
	if err != nil {
		return LoginResult{}, err
	}

	ip := shared.ClientIPFromContext(ctx)
	entry := shared.NewAuditEntry(ctx, "auth.login", map[string]any{"ip": ip, "remember": req.Remember}).On("user", user.ID)
	entry.ActorID = &user.ID
	s.audit.Record(ctx, entry)
	s.observe(observability.LoginSucceeded)

	return LoginResult{
		Token:      issued.Raw,
		ExpiresAt:  issued.ExpiresAt,
		Persistent: issued.Persistent,
		User:       UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

func (s *Service) rejected(ctx context.Context, email string) error {
	entry := shared.NewAuditEntry(ctx, "auth.login.failed", map[string]any{"email": email})
	entry.Severity = shared.SeverityWarning
	s.audit.Record(ctx, entry)
	s.observe(observability.LoginFailed)
	return shared.ErrInvalidCredentials
}

func (s *Service) observe(result string) {
	if s.logins != nil {
		s.logins.ObserveLogin(result)
	}
}

// Logout revokes raw so later requests carrying it are rejected.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Revoke(ctx, raw)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEntry(ctx, "auth.logout", map[string]any{"jti": claims.ID}).On("user", claims.Subject))
	return nil
}
