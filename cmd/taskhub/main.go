package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/taskhub/internal/app"
	"github.com/odyssey-erp/taskhub/internal/audit"
	audithttp "github.com/odyssey-erp/taskhub/internal/audit/http"
	"github.com/odyssey-erp/taskhub/internal/auth"
	"github.com/odyssey-erp/taskhub/internal/observability"
	"github.com/odyssey-erp/taskhub/internal/platform/cache"
	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/rbac"
	"github.com/odyssey-erp/taskhub/internal/roles"
	"github.com/odyssey-erp/taskhub/internal/tasks"
	"github.com/odyssey-erp/taskhub/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("taskhub stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			return err
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	recorder := audit.NewRecorder(audit.NewRepository(pool), logger, metrics.Registerer(), audit.WithWriteTimeout(cfg.AuditWriteTimeout))

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:      []byte(cfg.JWTSecret),
		Issuer:      cfg.JWTIssuer,
		TTL:         cfg.TokenTTL,
		RememberTTL: cfg.RememberTokenTTL,
	}, auth.NewRedisRevocationStore(redisClient))
	if err != nil {
		return err
	}

	rbacRepo := rbac.NewRepository(pool)
	rbacMiddleware := rbac.Middleware{
		Resolver: rbac.NewResolver(tokens, rbacRepo),
		Logger:   logger,
		Denials:  metrics,
	}

	authService := auth.NewService(auth.NewRepository(pool), tokens, recorder, metrics, cfg.BcryptCost)
	usersService := users.NewService(users.NewRepository(pool), recorder, cfg.BcryptCost)
	rolesService := roles.NewService(roles.NewRepository(pool), recorder)
	permissionsService := rbac.NewService(rbacRepo, recorder)
	tasksService := tasks.NewService(tasks.NewRepository(pool), recorder)
	activityService := audit.NewService(audit.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, authService, rbacMiddleware, cfg.LoginRateLimit),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, permissionsService, rbacMiddleware),
		TasksHandler:       tasks.NewHandler(logger, tasksService, rbacMiddleware),
		AuditHandler:       audithttp.NewHandler(logger, activityService, rbacMiddleware),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
