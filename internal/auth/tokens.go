package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// TokenConfig controls token signing and lifetimes.
type TokenConfig struct {
	Secret      []byte
	Issuer      string
	TTL         time.Duration
	RememberTTL time.Duration
}

// Claims carried by access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed token.
type IssuedToken struct {
	Raw        string
	ID         string
	ExpiresAt  time.Time
	Persistent bool
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	cfg     TokenConfig
	revoked RevocationStore
	now     func() time.Time
}

var _ rbac.TokenVerifier = (*TokenManager)(nil)

// NewTokenManager validates cfg and builds a TokenManager. A nil store
// disables revocation.
func NewTokenManager(cfg TokenConfig, store RevocationStore) (*TokenManager, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	if cfg.RememberTTL < cfg.TTL {
		cfg.RememberTTL = cfg.TTL
	}
	return &TokenManager{cfg: cfg, revoked: store, now: time.Now}, nil
}

// Issue signs a token for the user. Remembered sessions get the long lifetime.
func (m *TokenManager) Issue(userID int64, email string, remember bool) (IssuedToken, error) {
	ttl := m.cfg.TTL
	if remember {
		ttl = m.cfg.RememberTTL
	}
	now := m.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return IssuedToken{Raw: raw, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time, Persistent: remember}, nil
}

// Parse checks signature, method, issuer and expiry.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", shared.ErrInvalidToken)
	}
	return claims, nil
}

// VerifyToken parses raw, rejects revoked tokens and returns the subject id.
func (m *TokenManager) VerifyToken(ctx context.Context, raw string) (int64, error) {
	claims, err := m.Parse(raw)
	if err != nil {
		return 0, err
	}
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return 0, fmt.Errorf("auth: revocation lookup: %w", err)
		}
		if revoked {
			return 0, fmt.Errorf("%w: revoked", shared.ErrInvalidToken)
		}
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: bad subject", shared.ErrInvalidToken)
	}
	return userID, nil
}

// Revoke denylists raw until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, raw string) (*Claims, error) {
	claims, err := m.Parse(raw)
	if err != nil {
		return nil, err
	}
	if m.revoked == nil {
		return claims, nil
	}
	if err := m.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("auth: revoke: %w", err)
	}
	return claims, nil
}
