// Package dbmigrate applies the embedded goose migrations to a pgx pool.
package dbmigrate

import (
	"context"
	"database/sql"
	"io/fs"
	"os"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/migrations"
)

type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	logger   *logrus.Entry
}

type Options struct {
	// Dir overrides the embedded migrations with a directory on disk.
	Dir    string
	Logger *logrus.Entry
}

// New opens a database/sql handle over pool for goose. Close releases it; the pool stays open.
func New(pool *pgxpool.Pool, opts Options) (*Migrator, error) {
	var fsys fs.FS = migrations.FS
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init goose provider")
	}
	return &Migrator{db: db, provider: provider, logger: opts.Logger}, nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if r != nil {
		m.logResult(r)
	}
	if err != nil {
		return errors.Wrap(err, "migrate down")
	}
	return nil
}

// Reset rolls back every applied migration.
func (m *Migrator) Reset(ctx context.Context) error {
	results, err := m.provider.DownTo(ctx, 0)
	for _, r := range results {
		m.logResult(r)
	}
	if err != nil {
		return errors.Wrap(err, "migrate reset")
	}
	return nil
}

type Status struct {
	Version int64
	Path    string
	Applied bool
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "migrate status")
	}
	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func (m *Migrator) logResult(r *goose.MigrationResult) {
	entry := m.logger.WithFields(logrus.Fields{
		"version":   r.Source.Version,
		"direction": r.Direction,
		"duration":  r.Duration,
	})
	if r.Error != nil {
		entry.WithError(r.Error).Error("migration failed")
		return
	}
	entry.Info("migration applied")
}
