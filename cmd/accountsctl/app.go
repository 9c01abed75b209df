package main

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/accounts/modules/accounts"
	"github.com/iota-uz/accounts/pkg/application"
	"github.com/iota-uz/accounts/pkg/committer"
	"github.com/iota-uz/accounts/pkg/configuration"
	"github.com/iota-uz/accounts/pkg/outbox"
)

// newCommitter applies AUDIT_COMMIT_* and, when the audit feed is on, writes an outbox row
// next to every audit record.
func newCommitter(conf *configuration.Configuration, opts *rootOptions) (*committer.Committer, error) {
	copts := committer.OptionsFromConfig(conf.Commit)
	copts.Logger = opts.logger().WithField("component", "committer")
	if conf.AuditFeed.Enabled {
		table, err := outbox.ParseIdentifier(conf.AuditFeed.Table)
		if err != nil {
			return nil, err
		}
		feed, err := outbox.NewAuditFeed(outbox.NewPublisher(), table, conf.AuditFeed.Topic)
		if err != nil {
			return nil, err
		}
		copts.Feed = feed
	}
	return committer.New(nil, copts), nil
}

func newApplication(pool *pgxpool.Pool, opts *rootOptions) (application.Application, error) {
	c, err := newCommitter(opts.conf, opts)
	if err != nil {
		return nil, err
	}
	app := application.New(&application.ApplicationOptions{
		Pool:      pool,
		Committer: c,
		Logger:    opts.logger(),
	})
	if err := application.Load(app, accounts.NewModule()); err != nil {
		return nil, err
	}
	return app, nil
}
