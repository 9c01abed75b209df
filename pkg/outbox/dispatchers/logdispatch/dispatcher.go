// Package logdispatch writes outbox messages to a logger. It backs the relay when no broker
// is configured.
package logdispatch

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/outbox"
)

type Dispatcher struct {
	logger *logrus.Entry
}

func New(logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Dispatch(_ context.Context, msg outbox.DispatchedMessage) error {
	d.logger.WithFields(logrus.Fields{
		"table":    outbox.TableLabel(msg.Meta.Table),
		"topic":    msg.Meta.Topic,
		"key":      msg.Meta.Key,
		"event_id": msg.Meta.EventID.String(),
		"sequence": msg.Meta.Sequence,
		"attempts": msg.Meta.Attempts,
	}).Info(string(msg.Payload))
	return nil
}
