package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/pkg/audit"
)

// AuditEvent is the payload published for every audit record. The value columns are copied
// verbatim so field order survives the trip.
type AuditEvent struct {
	EntityType          string          `json:"entity_type"`
	Operation           audit.Operation `json:"operation"`
	InternalID          *int64          `json:"internal_id"`
	ExternalID          *uuid.UUID      `json:"external_id"`
	ActorUserID         *uuid.UUID      `json:"actor_user_id"`
	ActorOrganisationID *uuid.UUID      `json:"actor_organisation_id"`
	ActorServiceID      *string         `json:"actor_service_id"`
	Timestamp           time.Time       `json:"timestamp"`
	OldValues           json.RawMessage `json:"old_values"`
	NewValues           json.RawMessage `json:"new_values"`
	ChangedFields       json.RawMessage `json:"changed_fields"`
}

func NewAuditEvent(r audit.Record) AuditEvent {
	return AuditEvent{
		EntityType:          r.EntityType,
		Operation:           r.Operation,
		InternalID:          r.InternalID,
		ExternalID:          r.ExternalID,
		ActorUserID:         r.ActorUserID,
		ActorOrganisationID: r.ActorOrganisationID,
		ActorServiceID:      r.ActorServiceID,
		Timestamp:           r.Timestamp,
		OldValues:           rawOrNull(r.OldValuesJSON),
		NewValues:           rawOrNull(r.NewValuesJSON),
		ChangedFields:       rawOrNull(r.ChangedFieldsJSON),
	}
}

func rawOrNull(s *string) json.RawMessage {
	if s == nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(*s)
}

// PartitionKey orders the feed per entity. Entities without ids share one key per type.
func PartitionKey(r audit.Record) string {
	switch {
	case r.InternalID != nil:
		return r.EntityType + ":" + strconv.FormatInt(*r.InternalID, 10)
	case r.ExternalID != nil:
		return r.EntityType + ":" + r.ExternalID.String()
	default:
		return r.EntityType
	}
}

// AuditFeed turns audit records into outbox rows written next to them.
type AuditFeed struct {
	publisher Publisher
	table     pgx.Identifier
	topic     string
	newID     func() uuid.UUID
}

func NewAuditFeed(publisher Publisher, table pgx.Identifier, topic string) (*AuditFeed, error) {
	if publisher == nil {
		publisher = NewPublisher()
	}
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	if topic == "" {
		return nil, invalidConfig("topic is required")
	}
	return &AuditFeed{publisher: publisher, table: table, topic: topic, newID: uuid.New}, nil
}

func (f *AuditFeed) Statement(r audit.Record) (string, []any, error) {
	payload, err := json.Marshal(NewAuditEvent(r))
	if err != nil {
		return "", nil, err
	}
	return f.publisher.Statement(f.table, Message{
		Key:     PartitionKey(r),
		Topic:   f.topic,
		EventID: f.newID(),
		Payload: payload,
	})
}
