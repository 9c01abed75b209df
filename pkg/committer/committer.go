// Package committer persists a unit of work and its audit records atomically.
package committer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/composables"
	"github.com/iota-uz/accounts/pkg/retry"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type Strategy string

const (
	StrategyNone        Strategy = "none"
	StrategySinglePhase Strategy = "single_phase"
	StrategyTwoPhase    Strategy = "two_phase"
)

// Feed renders an extra insert for every audit record, written in the same transaction.
type Feed interface {
	Statement(r audit.Record) (sql string, args []any, err error)
}

type Result struct {
	Strategy  Strategy
	Attempts  int
	Timestamp time.Time
	// Records are the audit rows written, ids included, in entry order.
	Records []audit.Record
}

type Committer struct {
	store  *audit.Store
	opts   Options
	policy retry.Policy
}

func New(store *audit.Store, opts Options) *Committer {
	if store == nil {
		store = audit.NewStore()
	}
	opts.setDefaults()
	return &Committer{
		store:  store,
		opts:   opts,
		policy: retry.Policy{Base: opts.BaseBackoff, Max: opts.MaxBackoff, Jitter: opts.JitterMax},
	}
}

type attemptResult struct {
	strategy  Strategy
	records   []audit.Record
	generated map[unitofwork.Entity]map[string]any
}

// Commit writes every pending change in uow together with one audit record per mutated entity.
//
// The actor and the timestamp are fixed once per call and shared by all records, retries
// included. When ctx already carries a transaction the commit joins it, runs exactly once and
// leaves commit or rollback to the owner. Otherwise it opens its own transaction and retries
// the whole sequence on transient errors. Store-generated values are assigned to the entities
// only after a successful write.
func (c *Committer) Commit(ctx context.Context, uow *unitofwork.UnitOfWork, actor audit.Actor) (Result, error) {
	res := Result{Strategy: StrategyNone, Timestamp: audit.Timestamp(c.opts.Now())}
	if !uow.HasChanges() {
		return res, nil
	}
	logger := c.logger(ctx).WithFields(logrus.Fields{
		"actor":     actor.String(),
		"timestamp": res.Timestamp,
	})
	start := time.Now()

	if _, ok := composables.AmbientTx(ctx); ok {
		res.Attempts = 1
		out, err := c.attempt(ctx, uow, actor, res.Timestamp)
		res.Strategy = out.strategy
		if err != nil {
			recordCommit(res.Strategy, err, time.Since(start))
			logger.WithError(err).WithField("strategy", res.Strategy).Error("audited write in shared transaction failed")
			return res, err
		}
		c.finish(uow, out, &res)
		recordCommit(res.Strategy, nil, time.Since(start))
		return res, nil
	}

	if _, ok := ctx.Deadline(); !ok && c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		var out attemptResult
		err := composables.InTx(ctx, func(txCtx context.Context) error {
			var err error
			out, err = c.attempt(txCtx, uow, actor, res.Timestamp)
			return err
		})
		res.Strategy = out.strategy
		if err == nil {
			c.finish(uow, out, &res)
			recordCommit(res.Strategy, nil, time.Since(start))
			logger.WithFields(logrus.Fields{
				"strategy": res.Strategy,
				"attempts": attempt,
				"records":  len(res.Records),
			}).Debug("audited commit succeeded")
			return res, nil
		}

		reason, transient := transientReason(err)
		if !transient {
			recordCommit(res.Strategy, err, time.Since(start))
			return res, err
		}
		if attempt >= c.opts.MaxAttempts {
			err = fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
			recordCommit(res.Strategy, err, time.Since(start))
			logger.WithError(err).Error("audited commit gave up")
			return res, err
		}

		delay := c.policy.Delay(attempt, c.opts.Rand)
		recordRetry(reason)
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"reason":  reason,
			"delay":   delay,
		}).Warn("transient commit failure, retrying")
		if sleepErr := c.opts.Sleep(ctx, delay); sleepErr != nil {
			err = errors.Wrapf(sleepErr, "commit abandoned after %d attempts (last error: %v)", attempt, err)
			recordCommit(res.Strategy, err, time.Since(start))
			return res, err
		}
	}
}

// attempt runs the write sequence once inside the transaction in ctx. Entries are rebuilt from
// the unit of work every time so a retried attempt never sees values from a rolled back one.
func (c *Committer) attempt(ctx context.Context, uow *unitofwork.UnitOfWork, actor audit.Actor, ts time.Time) (attemptResult, error) {
	out := attemptResult{strategy: StrategyNone}
	entries := audit.Build(uow.Records())
	if len(entries) == 0 {
		return out, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return out, err
	}
	strategy := StrategySinglePhase
	if audit.RequiresTwoPhase(entries) {
		strategy = StrategyTwoPhase
	}
	out.strategy = strategy
	recordAttempt(out.strategy)

	writes := make([]*write, len(entries))
	first := &batch{}
	for i, e := range entries {
		writes[i] = newWrite(e)
		writes[i].queue(first)
	}

	second := first
	if out.strategy == StrategyTwoPhase {
		if err := first.send(ctx, tx); err != nil {
			return out, err
		}
		for _, w := range writes {
			if err := w.entry.Resolve(w.generated); err != nil {
				return out, err
			}
		}
		second = &batch{}
	}

	records, err := audit.NewRecords(entries, actor, ts)
	if err != nil {
		return out, err
	}
	if err := c.queueRecords(second, records); err != nil {
		return out, err
	}
	if err := second.send(ctx, tx); err != nil {
		return out, err
	}

	out.records = records
	out.generated = make(map[unitofwork.Entity]map[string]any)
	for _, w := range writes {
		if len(w.generated) > 0 {
			out.generated[w.entry.Source.Entity] = w.generated
		}
	}
	return out, nil
}

func (c *Committer) queueRecords(b *batch, records []audit.Record) error {
	for i := range records {
		r := &records[i]
		sql, args := c.store.InsertStatement(*r)
		b.add(sql, args, func(br pgx.BatchResults) error {
			if err := br.QueryRow().Scan(&r.ID); err != nil {
				return errors.Wrapf(err, "append audit record for %s", r.EntityType)
			}
			return nil
		})
		if c.opts.Feed == nil {
			continue
		}
		// The feed row is rendered before the audit id is known; it carries the
		// correlation fields instead.
		sql, args, err := c.opts.Feed.Statement(*r)
		if err != nil {
			return err
		}
		b.add(sql, args, func(br pgx.BatchResults) error {
			if _, err := br.Exec(); err != nil {
				return errors.Wrapf(err, "enqueue audit record for %s", r.EntityType)
			}
			return nil
		})
	}
	return nil
}

func (c *Committer) finish(uow *unitofwork.UnitOfWork, out attemptResult, res *Result) {
	uow.AcceptChanges(out.generated)
	res.Records = out.records
	recordAuditRecords(out.records)
}

func (c *Committer) logger(ctx context.Context) *logrus.Entry {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return composables.UseLogger(ctx)
}
