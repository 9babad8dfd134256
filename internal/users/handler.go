package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// Handler manages user endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the public /api/users routes. Registration is open;
// everything else needs a token, and changing or deleting an account needs
// to be its owner or hold manage_users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.registerUser)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		h.mountSelfService(r)
	})
}

// MountAdminRoutes registers /api/admin/users. Callers mount it behind
// Authenticate.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermViewUsers))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.PermManageUsers))
		r.Post("/", h.createUser)
		r.Post("/{id}/roles", h.assignRole)
		r.Delete("/{id}/roles", h.removeRole)
	})
	h.mountSelfService(r)
}

func (h *Handler) mountSelfService(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireSelfOr("id", shared.PermManageUsers))
		r.Put("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), CreateInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "User deleted")
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.AssignRole, "Role assigned")
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.RemoveRole, "Role removed")
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, roleID int64) error, done string) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var body RoleAssignment
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := apply(r.Context(), userID, body.RoleID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, done)
}
