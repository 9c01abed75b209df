// Package redisstream delivers outbox messages to a Redis stream.
package redisstream

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/accounts/pkg/outbox"
)

// Stream entry fields.
const (
	FieldEventID  = "event_id"
	FieldTopic    = "topic"
	FieldKey      = "key"
	FieldSequence = "sequence"
	FieldPayload  = "payload"
)

type Options struct {
	Stream string
	// MaxLen trims the stream approximately; zero keeps every entry.
	MaxLen int64
}

type Dispatcher struct {
	client redis.Cmdable
	opts   Options
}

func New(client redis.Cmdable, opts Options) (*Dispatcher, error) {
	if client == nil {
		return nil, errors.New("redisstream: client is required")
	}
	if opts.Stream == "" {
		return nil, errors.New("redisstream: stream is required")
	}
	return &Dispatcher{client: client, opts: opts}, nil
}

// Dispatch appends one entry per message. A relay retry after a lost ack appends the entry
// again; consumers deduplicate on event_id.
func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	args := &redis.XAddArgs{
		Stream: d.opts.Stream,
		ID:     "*",
		Values: map[string]any{
			FieldEventID:  msg.Meta.EventID.String(),
			FieldTopic:    msg.Meta.Topic,
			FieldKey:      msg.Meta.Key,
			FieldSequence: strconv.FormatInt(msg.Meta.Sequence, 10),
			FieldPayload:  string(msg.Payload),
		},
	}
	if d.opts.MaxLen > 0 {
		args.MaxLen = d.opts.MaxLen
		args.Approx = true
	}
	if err := d.client.XAdd(ctx, args).Err(); err != nil {
		return errors.Wrapf(err, "xadd %s", d.opts.Stream)
	}
	return nil
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return client, nil
}
