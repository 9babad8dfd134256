package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

// TokenVerifier checks a bearer token and returns the subject user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (int64, error)
}

// Resolver rebuilds the caller's identity from a token. Nothing is cached;
// role and permission changes apply on the next request.
type Resolver struct {
	tokens TokenVerifier
	graph  GraphReader
}

// NewResolver builds a Resolver.
func NewResolver(tokens TokenVerifier, graph GraphReader) *Resolver {
	return &Resolver{tokens: tokens, graph: graph}
}

// Resolve verifies raw, then loads the account, its roles and their
// permission union, in that order.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*shared.Identity, error) {
	userID, err := r.tokens.VerifyToken(ctx, raw)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("rbac: verify token: %w", err)
	}

	account, err := r.graph.FindAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountMissing) {
			return nil, shared.ErrUnknownUser
		}
		return nil, fmt.Errorf("rbac: load account: %w", err)
	}

	roles, err := r.graph.RoleNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: load roles: %w", err)
	}
	if roles == nil {
		roles = []string{}
	}

	perms, err := r.graph.PermissionNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: load permissions: %w", err)
	}

	return &shared.Identity{
		UserID:      account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Roles:       roles,
		Permissions: shared.NewPermissionSet(perms...),
	}, nil
}
