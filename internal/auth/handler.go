package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	rbac       rbac.Middleware
	loginLimit int
}

// NewHandler constructs a Handler. loginLimit caps login attempts per client
// IP per minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, loginLimit int) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, loginLimit: loginLimit}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.Limit(h.loginLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.Message(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
				}),
			))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"user": shared.IdentityFromContext(r.Context())})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw, _ := rbac.BearerToken(r)
	if err := h.service.Logout(r.Context(), raw); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Logged out")
}
