package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/accounts/pkg/dbmigrate"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}
	run := func(fn func(ctx context.Context, m *dbmigrate.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts.conf, func(ctx context.Context, pool *pgxpool.Pool) error {
				m, err := dbmigrate.New(pool, dbmigrate.Options{
					Dir:    opts.conf.MigrationsDir,
					Logger: opts.logger().WithField("component", "migrate"),
				})
				if err != nil {
					return err
				}
				defer func() { _ = m.Close() }()
				return fn(ctx, m)
			})
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  run(func(ctx context.Context, m *dbmigrate.Migrator) error { return m.Up(ctx) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE:  run(func(ctx context.Context, m *dbmigrate.Migrator) error { return m.Down(ctx) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Roll back every migration",
		RunE:  run(func(ctx context.Context, m *dbmigrate.Migrator) error { return m.Reset(ctx) }),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: run(func(ctx context.Context, m *dbmigrate.Migrator) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%05d  %-8s %s\n", s.Version, state, s.Path)
			}
			return nil
		}),
	})
	return cmd
}
