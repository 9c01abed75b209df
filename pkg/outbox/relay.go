package outbox

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/retry"
)

// querier is satisfied by *pgxpool.Pool and by the *pgxpool.Conn a leader pins.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Relay moves unpublished messages from an outbox table to a Dispatcher. Messages sharing a
// key are delivered in sequence order; a failed message holds back the rest of its key until
// it is delivered or runs out of attempts.
type Relay struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	dispatcher Dispatcher
	opts       RelayOptions
	policy     retry.Policy
	lockKey    int64
	label      string
	m          *metrics
	sql        relaySQL
}

type relaySQL struct {
	claim, settle, depth string
}

func NewRelay(pool *pgxpool.Pool, table pgx.Identifier, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	switch {
	case pool == nil:
		return nil, invalidConfig("pool is required")
	case len(table) == 0:
		return nil, invalidConfig("table is required")
	case dispatcher == nil:
		return nil, invalidConfig("dispatcher is required")
	}
	opts.setDefaults()
	label := TableLabel(table)
	return &Relay{
		pool:       pool,
		table:      table,
		dispatcher: dispatcher,
		opts:       opts,
		policy:     opts.retryPolicy(),
		lockKey:    advisoryLockKey("outbox:" + label),
		label:      label,
		m:          getMetrics(),
		sql:        buildRelaySQL(table.Sanitize()),
	}, nil
}

func buildRelaySQL(t string) relaySQL {
	return relaySQL{
		// $1 now, $2 max attempts, $3 stale lock cutoff, $4 batch size. A message is skipped
		// while an earlier message of its key waits out a backoff.
		claim: fmt.Sprintf(`
WITH picked AS (
	SELECT o.id FROM %[1]s o
	 WHERE o.published_at IS NULL
	   AND o.available_at <= $1
	   AND o.attempts < $2
	   AND (o.locked_at IS NULL OR o.locked_at < $3)
	   AND NOT EXISTS (
	       SELECT 1 FROM %[1]s prev
	        WHERE prev.partition_key = o.partition_key
	          AND prev.sequence < o.sequence
	          AND prev.published_at IS NULL
	          AND prev.attempts < $2
	          AND prev.available_at > $1)
	 ORDER BY o.sequence
	 LIMIT $4
	 FOR UPDATE SKIP LOCKED)
UPDATE %[1]s o
   SET locked_at = $1, attempts = o.attempts + 1
  FROM picked
 WHERE o.id = picked.id
RETURNING o.id, o.partition_key, o.topic, o.payload, o.event_id, o.sequence, o.attempts`, t),
		// $2 delivered, $3 refund the attempt, $4 last error, $5 next availability.
		settle: fmt.Sprintf(`
UPDATE %s
   SET locked_at = NULL,
       published_at = CASE WHEN $2::boolean THEN now() END,
       attempts = CASE WHEN $3::boolean THEN GREATEST(attempts - 1, 0) ELSE attempts END,
       last_error = CASE WHEN $2::boolean THEN NULL ELSE COALESCE($4::text, last_error) END,
       available_at = COALESCE($5::timestamptz, available_at)
 WHERE id = $1 AND published_at IS NULL`, t),
		depth: fmt.Sprintf(`
SELECT count(*), count(*) FILTER (WHERE locked_at IS NOT NULL)
  FROM %s WHERE published_at IS NULL`, t),
	}
}

// Run polls until ctx is done. With SingleActive it first waits to become the table's leader
// and keeps the lock on a dedicated connection for as long as it runs.
func (r *Relay) Run(ctx context.Context) error {
	if !r.opts.SingleActive {
		r.m.setLeader(r.label, true)
		return r.poll(ctx, r.pool)
	}
	for {
		conn, err := r.lead(ctx)
		if err != nil {
			return err
		}
		if conn == nil {
			if err := sleep(ctx, r.opts.PollInterval); err != nil {
				return err
			}
			continue
		}
		r.m.setLeader(r.label, true)
		r.opts.Logger.WithField("table", r.label).Info("outbox: relay became leader")
		err = r.poll(ctx, conn)
		r.m.setLeader(r.label, false)
		if _, unlockErr := conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, r.lockKey); unlockErr != nil {
			r.opts.Logger.WithError(unlockErr).Warn("outbox: advisory unlock failed")
		}
		conn.Release()
		return err
	}
}

// lead returns a connection holding the table lock, or nil when another relay leads. Only a
// cancelled ctx is returned as an error; database trouble is logged and retried.
func (r *Relay) lead(ctx context.Context) (*pgxpool.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		r.opts.Logger.WithError(err).Warn("outbox: acquire connection for leader election failed")
		return nil, nil
	}
	var won bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, r.lockKey).Scan(&won); err != nil || !won {
		if err != nil {
			r.opts.Logger.WithError(err).Warn("outbox: advisory lock attempt failed")
		}
		r.m.setLeader(r.label, false)
		conn.Release()
		return nil, nil
	}
	return conn, nil
}

func (r *Relay) poll(ctx context.Context, db querier) error {
	var depthDue time.Time
	return every(ctx, r.opts.PollInterval, func(ctx context.Context) error {
		if now := time.Now(); !now.Before(depthDue) {
			if err := r.observeDepth(ctx, db); err != nil {
				r.opts.Logger.WithError(err).Debug("outbox: queue depth query failed")
			}
			depthDue = now.Add(r.opts.ObserveQueueDepthEvery)
		}
		_, err := r.process(ctx, db)
		return err
	}, r.opts.Logger.WithField("table", r.label))
}

type claimed struct {
	ID       uuid.UUID
	Key      string
	Topic    string
	Payload  []byte
	EventID  uuid.UUID
	Sequence int64
	// Attempts already counts the current claim.
	Attempts int
}

func (c claimed) fields(table string) logrus.Fields {
	return logrus.Fields{
		"table":    table,
		"topic":    c.Topic,
		"event_id": c.EventID,
		"key":      c.Key,
		"sequence": c.Sequence,
		"attempts": c.Attempts,
	}
}

// ProcessOnce claims one batch, dispatches it and returns how many messages were delivered.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	return r.process(ctx, r.pool)
}

func (r *Relay) process(ctx context.Context, db querier) (int, error) {
	batch, err := r.claim(ctx, db)
	if err != nil {
		return 0, err
	}
	delivered := 0
	held := map[string]struct{}{}
	for _, c := range batch {
		var out outcome
		if _, blocked := held[c.Key]; blocked {
			out = outcome{refund: true}
		} else {
			out = r.deliver(ctx, c)
		}
		switch {
		case out.delivered:
			delivered++
		case out.parked:
			r.m.parked.WithLabelValues(r.label, c.Topic).Inc()
			r.opts.Logger.WithFields(c.fields(r.label)).Warn("outbox: message used up its attempts")
		case !out.refund:
			held[c.Key] = struct{}{}
		}
		if err := r.settle(ctx, db, c.ID, out); err != nil {
			r.opts.Logger.WithError(err).WithFields(c.fields(r.label)).Warn("outbox: settle failed")
		}
	}
	return delivered, nil
}

// outcome is how a claimed message leaves the batch.
type outcome struct {
	delivered bool
	// refund releases a message that was never dispatched.
	refund bool
	parked bool
	err    *string
	retry  *time.Time
}

func (r *Relay) deliver(ctx context.Context, c claimed) outcome {
	dctx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	start := time.Now()
	err := r.dispatcher.Dispatch(dctx, DispatchedMessage{
		Meta: Meta{
			Table:    r.table,
			Key:      c.Key,
			Topic:    c.Topic,
			EventID:  c.EventID,
			Sequence: c.Sequence,
			Attempts: c.Attempts,
		},
		Payload: c.Payload,
	})
	cancel()
	r.m.observeDispatch(r.label, c.Topic, err, time.Since(start))
	if err == nil {
		return outcome{delivered: true}
	}

	msg := lastError(err, r.opts.LastErrorMaxLen)
	now := time.Now()
	if c.Attempts >= r.opts.MaxAttempts {
		return outcome{parked: true, err: &msg, retry: &now}
	}
	next := now.Add(r.policy.Delay(c.Attempts, r.opts.Rand))
	return outcome{err: &msg, retry: &next}
}

func (r *Relay) claim(ctx context.Context, db querier) ([]claimed, error) {
	now := time.Now()
	rows, err := db.Query(ctx, r.sql.claim, now, r.opts.MaxAttempts, now.Add(-r.opts.LockTTL), r.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("outbox claim: %w", err)
	}
	batch, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (claimed, error) {
		var c claimed
		err := row.Scan(&c.ID, &c.Key, &c.Topic, &c.Payload, &c.EventID, &c.Sequence, &c.Attempts)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("outbox claim: %w", err)
	}
	// RETURNING does not keep the ORDER BY of the picking subquery.
	slices.SortFunc(batch, func(a, b claimed) int { return cmp.Compare(a.Sequence, b.Sequence) })
	return batch, nil
}

func (r *Relay) settle(ctx context.Context, db querier, id uuid.UUID, out outcome) error {
	if _, err := db.Exec(ctx, r.sql.settle, id, out.delivered, out.refund, out.err, out.retry); err != nil {
		return fmt.Errorf("outbox settle: %w", err)
	}
	return nil
}

func (r *Relay) observeDepth(ctx context.Context, db querier) error {
	var pending, locked int64
	if err := db.QueryRow(ctx, r.sql.depth).Scan(&pending, &locked); err != nil {
		return fmt.Errorf("outbox queue depth: %w", err)
	}
	r.m.depth.WithLabelValues(r.label, "pending").Set(float64(pending))
	r.m.depth.WithLabelValues(r.label, "locked").Set(float64(locked))
	return nil
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// every runs tick each interval until ctx ends. Tick errors other than cancellation are logged.
func every(ctx context.Context, interval time.Duration, tick func(context.Context) error, log *logrus.Entry) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.WithError(err).Warn("outbox: tick failed")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
