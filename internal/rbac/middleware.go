package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// DenialObserver counts refused requests.
type DenialObserver interface {
	ObserveDenied(permission string)
}

// Middleware wires authentication and authorization for HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Denials  DenialObserver
}

// Authenticate resolves the bearer token into an identity and stores it in the
// request context. Requests without a valid token stop here with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := BearerToken(r)
		if !ok {
			httpx.RespondError(w, m.Logger, shared.ErrUnauthenticated)
			return
		}
		id, err := m.Resolver.Resolve(r.Context(), raw)
		if err != nil {
			httpx.RespondError(w, m.Logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// Require passes only identities holding perm.
func (m Middleware) Require(perm shared.Permission) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny passes identities holding at least one of perms.
func (m Middleware) RequireAny(perms ...shared.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(shared.IdentityFromContext(r.Context()), perms...); err != nil {
				m.deny(w, err, perms)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOr passes when the URL parameter param names the caller's own
// user id, otherwise it behaves like Require(perm).
func (m Middleware) RequireSelfOr(param string, perm shared.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target, err := httpx.IDParam(r, param)
			if err != nil {
				httpx.RespondError(w, m.Logger, err)
				return
			}
			if err := AuthorizeSelfOr(shared.IdentityFromContext(r.Context()), target, perm); err != nil {
				m.deny(w, err, []shared.Permission{perm})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, err error, perms []shared.Permission) {
	if m.Denials != nil {
		for _, p := range perms {
			m.Denials.ObserveDenied(string(p))
		}
	}
	httpx.RespondError(w, m.Logger, err)
}

// Authorize decides whether id may proceed given the required permissions.
func Authorize(id *shared.Identity, perms ...shared.Permission) error {
	if id == nil {
		return shared.ErrUnauthenticated
	}
	if !id.Permissions.HasAny(perms...) {
		return shared.ErrForbidden
	}
	return nil
}

// AuthorizeSelfOr allows the owner of targetUserID or any holder of perm.
func AuthorizeSelfOr(id *shared.Identity, targetUserID int64, perm shared.Permission) error {
	if id == nil {
		return shared.ErrUnauthenticated
	}
	if id.UserID == targetUserID {
		return nil
	}
	return Authorize(id, perm)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
