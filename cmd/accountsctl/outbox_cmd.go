package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/accounts/pkg/metrics"
	"github.com/iota-uz/accounts/pkg/outbox"
	"github.com/iota-uz/accounts/pkg/outbox/dispatchers/logdispatch"
	"github.com/iota-uz/accounts/pkg/outbox/dispatchers/redisstream"
)

func newOutboxCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Relay the audit feed outbox",
	}
	cmd.AddCommand(newOutboxRelayCmd(opts))
	cmd.AddCommand(newOutboxCleanCmd(opts))
	return cmd
}

func newOutboxRelayCmd(opts *rootOptions) *cobra.Command {
	var (
		once       bool
		dispatcher string
	)
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Deliver outbox rows to the audit stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := opts.conf
			logger := opts.logger().WithField("component", "outbox")
			table, err := outbox.ParseIdentifier(conf.AuditFeed.Table)
			if err != nil {
				return err
			}
			logger = logger.WithField("table", outbox.TableLabel(table))

			var d outbox.Dispatcher
			switch dispatcher {
			case "redis":
				client, err := redisstream.Connect(cmd.Context(), conf.RedisURL)
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				d, err = redisstream.New(client, redisstream.Options{
					Stream: conf.AuditFeed.Stream,
					MaxLen: conf.AuditFeed.StreamMaxLen,
				})
				if err != nil {
					return err
				}
			case "log":
				d = logdispatch.New(logger)
			default:
				return fmt.Errorf("unknown --dispatcher %q (want redis or log)", dispatcher)
			}

			return withDB(cmd.Context(), conf, func(ctx context.Context, pool *pgxpool.Pool) error {
				relay, err := outbox.NewRelay(pool, table, d, outbox.RelayOptionsFromConfig(conf.Outbox, logger))
				if err != nil {
					return err
				}
				if once {
					n, err := relay.ProcessOnce(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("delivered %d message(s)\n", n)
					return nil
				}

				cleaner, err := outbox.NewCleaner(pool, table, outbox.CleanerOptionsFromConfig(conf.Outbox, logger))
				if err != nil {
					return err
				}
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error { return relay.Run(gctx) })
				g.Go(func() error { return cleaner.Run(gctx) })
				g.Go(func() error { return metrics.Serve(gctx, conf.Prometheus, logger) })
				if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Process a single batch and exit")
	cmd.Flags().StringVar(&dispatcher, "dispatcher", "redis", "Delivery target: redis or log")
	return cmd
}

func newOutboxCleanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete delivered and dead outbox rows past their retention once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := opts.conf
			table, err := outbox.ParseIdentifier(conf.AuditFeed.Table)
			if err != nil {
				return err
			}
			logger := opts.logger().WithField("component", "outbox")
			return withDB(cmd.Context(), conf, func(ctx context.Context, pool *pgxpool.Pool) error {
				cleaner, err := outbox.NewCleaner(pool, table, outbox.CleanerOptionsFromConfig(conf.Outbox, logger))
				if err != nil {
					return err
				}
				n, err := cleaner.CleanOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("deleted %d row(s)\n", n)
				return nil
			})
		},
	}
}
