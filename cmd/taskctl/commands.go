package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/taskhub/internal/app"
	"github.com/odyssey-erp/taskhub/internal/platform/db"
	"github.com/odyssey-erp/taskhub/internal/seed"
	"github.com/odyssey-erp/taskhub/jobs"
)

// loadConfig is replaced in tests.
var loadConfig = app.LoadConfig

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Operational commands for taskhub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newJobsCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return db.Migrate(cfg.PGDSN, logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the given number of migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return db.MigrateDown(cfg.PGDSN, steps, logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)
	return cmd
}

func newSeedCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install core permissions, the admin and user roles and the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if len(cfg.SeedAdminPassword) < 6 {
				return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 6 characters")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := seed.Run(ctx, pool, seed.Options{
				AdminName:     name,
				AdminEmail:    cfg.SeedAdminEmail,
				AdminPassword: cfg.SeedAdminPassword,
				BcryptCost:    cfg.BcryptCost,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "permissions added: %d\nroles added: %d\ngrants added: %d\n", res.Permissions, res.Roles, res.Grants)
			if res.AdminNew {
				fmt.Fprintf(out, "admin %s created (id %d)\n", cfg.SeedAdminEmail, res.AdminID)
			} else {
				fmt.Fprintf(out, "admin %s already present (id %d)\n", cfg.SeedAdminEmail, res.AdminID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "admin-name", "Administrator", "display name of the seeded admin")
	return cmd
}

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	var retention time.Duration
	trigger := &cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a job now (supported: " + jobs.TaskActivityPrune + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if retention == 0 {
				retention = cfg.ActivityRetention
			}
			client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer client.Close()
			info, err := client.Trigger(cmd.Context(), args[0], retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().DurationVar(&retention, "retention", 0, "retention window for activity:prune (defaults to ACTIVITY_RETENTION)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			defer client.Close()
			s, err := client.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry)
			return nil
		},
	}

	cmd.AddCommand(trigger, stats)
	return cmd
}

func setup() (*app.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, app.NewLogger(cfg), nil
}
