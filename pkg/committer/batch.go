package committer

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/repo"
)

// batch pairs queued statements with the readers of their results. Results are consumed in
// queue order so a failing statement stops the round trip.
type batch struct {
	b     pgx.Batch
	steps []func(pgx.BatchResults) error
}

func (p *batch) add(sql string, args []any, read func(pgx.BatchResults) error) {
	p.b.Queue(sql, args...)
	p.steps = append(p.steps, read)
}

func (p *batch) len() int { return len(p.steps) }

func (p *batch) send(ctx context.Context, tx repo.Tx) error {
	if p.len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, &p.b)
	for _, step := range p.steps {
		if err := step(br); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}
