package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/accounts/pkg/configuration"
)

type rootOptions struct {
	envFiles []string
	conf     *configuration.Configuration
}

func (o *rootOptions) logger() *logrus.Entry {
	return logrus.NewEntry(o.conf.Logger()).WithField("app", "accountsctl")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "accountsctl",
		Short:         "Accounts administration: migrations, audit log and audit feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := configuration.Load(opts.envFiles...)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			opts.conf = conf
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env", ".env.local"}, "Env files to load before the process environment")

	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newAuditCmd(opts))
	cmd.AddCommand(newOutboxCmd(opts))
	cmd.AddCommand(newOrganisationCmd(opts))
	cmd.AddCommand(newPersonCmd(opts))
	cmd.AddCommand(newSchemeCmd(opts))
	cmd.AddCommand(newEnrolCmd(opts))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
