package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrInvalidConfig  = serrors.NewError("OUTBOX_INVALID_CONFIG", "invalid outbox configuration", "")
	ErrInvalidMessage = serrors.NewError("OUTBOX_INVALID_MESSAGE", "invalid outbox message", "")
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func invalidMessage(what string) error { return fmt.Errorf("%w: %s", ErrInvalidMessage, what) }

// Message is one row of an outbox table.
type Message struct {
	// Key groups messages that belong to the same entity, e.g. "Person:42".
	Key     string
	Topic   string
	EventID uuid.UUID
	Payload json.RawMessage
}

// Meta is what a dispatcher needs to deliver a message idempotently.
type Meta struct {
	Table    pgx.Identifier
	Key      string
	Topic    string
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

// DispatchedMessage is the unit delivered by Relay to Dispatcher.
type DispatchedMessage struct {
	Meta    Meta
	Payload json.RawMessage
}

// Dispatcher delivers claimed messages. A returned error schedules a retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg DispatchedMessage) error
}

type DispatcherFunc func(ctx context.Context, msg DispatchedMessage) error

func (f DispatcherFunc) Dispatch(ctx context.Context, msg DispatchedMessage) error {
	return f(ctx, msg)
}
