package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maxviazov/crm-service/internal/repository"
	"github.com/maxviazov/crm-service/internal/repository/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withRunner(func(ctx context.Context, r *migrations.Runner) error {
				return r.Up(ctx)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withRunner(func(ctx context.Context, r *migrations.Runner) error {
				return r.Down(ctx)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: withRunner(func(ctx context.Context, r *migrations.Runner) error {
				list, err := r.Status(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tFILE\tAPPLIED")
				for _, s := range list {
					fmt.Fprintf(w, "%d\t%s\t%t\n", s.Version, s.File, s.Applied)
				}
				return w.Flush()
			}),
		},
	)
	rootCmd.AddCommand(migrateCmd)
}

// withRunner connects to Postgres and hands a migration runner to fn.
func withRunner(fn func(ctx context.Context, r *migrations.Runner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, appLogger, err := bootstrap()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		pool, err := repository.NewPool(ctx, cfg.Postgres, &appLogger)
		if err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		defer pool.Close()

		runner, err := migrations.NewRunner(pool, appLogger)
		if err != nil {
			return err
		}
		defer runner.Close()
		return fn(ctx, runner)
	}
}
