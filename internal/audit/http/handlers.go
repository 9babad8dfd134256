package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/taskhub/internal/audit"
	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/shared"
)

// ActivityService is the read side of the activity log.
type ActivityService interface {
	List(ctx context.Context, filters audit.Filters) ([]audit.Entry, error)
	Get(ctx context.Context, id int64) (audit.Entry, error)
}

// Handler serves activity log endpoints.
type Handler struct {
	logger  *slog.Logger
	service ActivityService
	rbac    rbac.Middleware
}

// NewHandler creates an activity log handler.
func NewHandler(logger *slog.Logger, service ActivityService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	entries, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func parseFilters(r *http.Request) (audit.Filters, error) {
	q := r.URL.Query()
	filters := audit.Filters{Action: strings.TrimSpace(q.Get("action"))}
	if v := strings.TrimSpace(q.Get("user_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return audit.Filters{}, shared.NewError(shared.ErrValidation, "user_id must be a positive integer")
		}
		filters.UserID = &id
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return audit.Filters{}, shared.NewError(shared.ErrValidation, "limit must be a positive integer")
		}
		filters.Limit = limit
	}
	return filters, nil
}
