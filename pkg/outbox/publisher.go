package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/repo"
)

type Publisher interface {
	// Statement renders the insert for msg so it can be queued on a batch.
	Statement(table pgx.Identifier, msg Message) (string, []any, error)
	// Enqueue inserts msg through tx and returns its sequence. Enqueueing the same event id
	// twice returns the sequence of the first row.
	Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg Message) (sequence int64, err error)
}

type publisher struct {
	m *metrics
}

func NewPublisher() Publisher {
	return &publisher{m: getMetrics()}
}

func validate(table pgx.Identifier, msg Message) error {
	if len(table) == 0 {
		return invalidConfig("table is required")
	}
	if msg.Key == "" {
		return invalidMessage("key is required")
	}
	if msg.EventID == uuid.Nil {
		return invalidMessage("event_id is required")
	}
	if msg.Topic == "" {
		return invalidMessage("topic is required")
	}
	if len(msg.Payload) == 0 {
		return invalidMessage("payload is required")
	}
	return nil
}

func (p *publisher) Statement(table pgx.Identifier, msg Message) (string, []any, error) {
	if err := validate(table, msg); err != nil {
		return "", nil, err
	}
	q := fmt.Sprintf(
		`INSERT INTO %s (partition_key, topic, payload, event_id, available_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
		 RETURNING sequence`,
		table.Sanitize(),
	)
	p.m.enqueued.WithLabelValues(TableLabel(table), msg.Topic).Inc()
	return q, []any{msg.Key, msg.Topic, []byte(msg.Payload), msg.EventID}, nil
}

func (p *publisher) Enqueue(ctx context.Context, tx repo.Tx, table pgx.Identifier, msg Message) (int64, error) {
	q, args, err := p.Statement(table, msg)
	if err != nil {
		return 0, err
	}
	var sequence int64
	if err := tx.QueryRow(ctx, q, args...).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}
	return sequence, nil
}
