package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/odyssey-erp/taskhub/internal/audit/http"
	"github.com/odyssey-erp/taskhub/internal/auth"
	"github.com/odyssey-erp/taskhub/internal/observability"
	"github.com/odyssey-erp/taskhub/internal/platform/httpx"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/roles"
	"github.com/odyssey-erp/taskhub/internal/tasks"
	"github.com/odyssey-erp/taskhub/internal/users"
	"github.com/odyssey-erp/taskhub/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RBACMiddleware     rbac.Middleware
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	TasksHandler       *tasks.Handler
	AuditHandler       *audithttp.Handler
	Metrics            *observability.Metrics
	// Static overrides the embedded client shell.
	Static fs.FS
}

// NewRouter constructs the chi.Router with taskhub defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.TasksHandler != nil {
			r.Route("/tasks", params.TasksHandler.MountRoutes)
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(params.RBACMiddleware.Authenticate)
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountAdminRoutes)
			}
			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountRoutes)
			}
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/activity-logs", params.AuditHandler.MountRoutes)
			}
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Message(w, http.StatusNotFound, "Not found")
		})
	})

	staticFS := params.Static
	if staticFS == nil {
		sub, err := fs.Sub(web.Static, "static")
		if err != nil {
			params.Logger.Error("create static sub filesystem", slog.Any("error", err))
			return r
		}
		staticFS = sub
	}
	r.NotFound(spaHandler(staticFS))
	return r
}

// spaHandler serves files from static and falls back to index.html so client
// side routes survive a reload.
func spaHandler(static fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(static))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httpx.Message(w, http.StatusNotFound, "Not found")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name != "" {
			if info, err := fs.Stat(static, name); err == nil && !info.IsDir() {
				w.Header().Set("Cache-Control", "public, max-age=3600")
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, static, "index.html")
	}
}
