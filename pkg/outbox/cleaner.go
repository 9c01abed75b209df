package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cleaner prunes delivered messages and, optionally, messages the relay gave up on.
type Cleaner struct {
	pool  *pgxpool.Pool
	label string
	opts  CleanerOptions
	query string
}

func NewCleaner(pool *pgxpool.Pool, table pgx.Identifier, opts CleanerOptions) (*Cleaner, error) {
	switch {
	case pool == nil:
		return nil, invalidConfig("pool is required")
	case len(table) == 0:
		return nil, invalidConfig("table is required")
	case opts.DeadRetention > 0 && opts.DeadAttemptsThreshold <= 0:
		return nil, invalidConfig("dead retention requires a positive attempts threshold")
	}
	opts.setDefaults()
	return &Cleaner{
		pool:  pool,
		label: TableLabel(table),
		opts:  opts,
		// $1 published cutoff; $2 whether dead rows go too, $3 their attempts, $4 their cutoff.
		query: fmt.Sprintf(`
DELETE FROM %s
 WHERE (published_at IS NOT NULL AND published_at < $1)
    OR ($2::boolean AND published_at IS NULL AND attempts >= $3 AND created_at < $4)`, table.Sanitize()),
	}, nil
}

// Run cleans every Interval until ctx is done. A disabled cleaner returns at once.
func (c *Cleaner) Run(ctx context.Context) error {
	if !c.opts.Enabled {
		return nil
	}
	return every(ctx, c.opts.Interval, func(ctx context.Context) error {
		_, err := c.CleanOnce(ctx)
		return err
	}, c.opts.Logger.WithField("table", c.label))
}

// CleanOnce removes published messages older than Retention and, with DeadRetention set, dead
// messages created before it. It returns the number of rows removed.
func (c *Cleaner) CleanOnce(ctx context.Context) (int64, error) {
	now := time.Now()
	tag, err := c.pool.Exec(ctx, c.query,
		now.Add(-c.opts.Retention),
		c.opts.DeadRetention > 0,
		c.opts.DeadAttemptsThreshold,
		now.Add(-c.opts.DeadRetention),
	)
	if err != nil {
		return 0, fmt.Errorf("outbox clean: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		c.opts.Logger.WithField("table", c.label).WithField("deleted", n).Info("outbox: cleaned")
		return n, nil
	}
	return 0, nil
}
