package audithttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

const rateLimit = 60
const rateWindow = time.Minute

// MountRoutes registers /api/admin/activity-logs. Callers mount it behind
// Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Message(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(h.rbac.Require(shared.PermViewActivityLog))
		gr.Use(limiter)
		gr.Get("/", h.handleList)
		gr.Get("/{id}", h.handleGet)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id := shared.IdentityFromContext(r.Context()); id != nil {
		return "user:" + strconv.FormatInt(id.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
