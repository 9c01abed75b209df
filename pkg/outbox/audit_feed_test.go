package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/audit"
)

func strPtr(s string) *string { return &s }

func TestPartitionKey(t *testing.T) {
	id := int64(42)
	ext := uuid.MustParse("c6a7f0c2-52a1-4c5e-8d0f-3b1e2a4c5d6e")

	require.Equal(t, "Person:42", PartitionKey(audit.Record{EntityType: "Person", InternalID: &id, ExternalID: &ext}))
	require.Equal(t, "Person:"+ext.String(), PartitionKey(audit.Record{EntityType: "Person", ExternalID: &ext}))
	require.Equal(t, "Setting", PartitionKey(audit.Record{EntityType: "Setting"}))
}

func TestAuditFeed_Statement(t *testing.T) {
	eventID := uuid.MustParse("1f0b7c1e-8b0a-4f4f-9a61-6c2d3e4f5a6b")
	feed, err := NewAuditFeed(nil, pgx.Identifier{"audit_outbox"}, "accounts.audit.v1")
	require.NoError(t, err)
	feed.newID = func() uuid.UUID { return eventID }

	id := int64(7)
	ts := time.Date(2025, 5, 6, 7, 8, 9, 123000, time.UTC)
	sql, args, err := feed.Statement(audit.Record{
		ActorServiceID:    strPtr("importer"),
		Timestamp:         ts,
		EntityType:        "Organisation",
		Operation:         audit.OperationUpdated,
		InternalID:        &id,
		OldValuesJSON:     strPtr(`{"name":"Acme","nations":["england"]}`),
		NewValuesJSON:     strPtr(`{"name":"Acme Ltd","nations":["england"]}`),
		ChangedFieldsJSON: strPtr(`["name"]`),
	})
	require.NoError(t, err)
	require.Contains(t, sql, `INSERT INTO "audit_outbox" (partition_key, topic, payload, event_id, available_at)`)
	require.Len(t, args, 4)
	require.Equal(t, "Organisation:7", args[0])
	require.Equal(t, "accounts.audit.v1", args[1])
	require.Equal(t, eventID, args[3])

	payload, ok := args[2].([]byte)
	require.True(t, ok)
	require.JSONEq(t, `{
		"entity_type": "Organisation",
		"operation": "Updated",
		"internal_id": 7,
		"external_id": null,
		"actor_user_id": null,
		"actor_organisation_id": null,
		"actor_service_id": "importer",
		"timestamp": "2025-05-06T07:08:09.000123Z",
		"old_values": {"name":"Acme","nations":["england"]},
		"new_values": {"name":"Acme Ltd","nations":["england"]},
		"changed_fields": ["name"]
	}`, string(payload))

	var event AuditEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	require.Equal(t, `{"name":"Acme Ltd","nations":["england"]}`, string(event.NewValues), "value columns keep their field order")
}

func TestAuditFeed_CreatedHasNullOldValues(t *testing.T) {
	feed, err := NewAuditFeed(nil, pgx.Identifier{"audit_outbox"}, "accounts.audit.v1")
	require.NoError(t, err)

	_, args, err := feed.Statement(audit.Record{
		EntityType:    "Person",
		Operation:     audit.OperationCreated,
		NewValuesJSON: strPtr(`{"email":"a@b.c"}`),
	})
	require.NoError(t, err)
	var event map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(args[2].([]byte), &event))
	require.Equal(t, "null", string(event["old_values"]))
	require.Equal(t, "null", string(event["changed_fields"]))
}

func TestNewAuditFeed_Validates(t *testing.T) {
	_, err := NewAuditFeed(nil, nil, "topic")
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewAuditFeed(nil, pgx.Identifier{"audit_outbox"}, "")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPublisher_StatementValidatesMessage(t *testing.T) {
	p := NewPublisher()
	table := pgx.Identifier{"audit_outbox"}
	valid := Message{Key: "k", Topic: "t", EventID: uuid.New(), Payload: json.RawMessage(`{}`)}

	_, _, err := p.Statement(table, valid)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*Message){
		"key":      func(m *Message) { m.Key = "" },
		"topic":    func(m *Message) { m.Topic = "" },
		"event id": func(m *Message) { m.EventID = uuid.UUID{} },
		"payload":  func(m *Message) { m.Payload = nil },
	} {
		t.Run(name, func(t *testing.T) {
			msg := valid
			mutate(&msg)
			_, _, err := p.Statement(table, msg)
			require.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	_, _, err = p.Statement(nil, valid)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseIdentifier(t *testing.T) {
	ident, err := ParseIdentifier(" public.audit_outbox ")
	require.NoError(t, err)
	require.Equal(t, pgx.Identifier{"public", "audit_outbox"}, ident)

	ident, err = ParseIdentifier("Audit_Outbox")
	require.NoError(t, err)
	require.Equal(t, "audit_outbox", TableLabel(ident))

	for _, bad := range []string{"", "a.b.c", "audit-outbox", "public.", "1outbox"} {
		_, err := ParseIdentifier(bad)
		require.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}
