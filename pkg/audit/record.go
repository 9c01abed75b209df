package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one row of audit_logs. Records are append-only: once written they are never
// updated or deleted.
type Record struct {
	ID                  int64
	ActorUserID         *uuid.UUID
	ActorOrganisationID *uuid.UUID
	ActorServiceID      *string
	Timestamp           time.Time
	EntityType          string
	Operation           Operation
	InternalID          *int64
	ExternalID          *uuid.UUID
	OldValuesJSON       *string
	NewValuesJSON       *string
	ChangedFieldsJSON   *string
}

// Timestamp normalises a commit timestamp to what timestamptz stores, so records read back
// compare equal to the ones written.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewRecord serialises a resolved entry. Empty value maps and an empty changed-field list are
// stored as NULL.
func NewRecord(e *Entry, actor Actor, ts time.Time) (Record, error) {
	if e.IsPending() {
		return Record{}, fmt.Errorf("%w: %s", ErrUnresolved, e.EntityType)
	}
	oldJSON, err := marshalNullable(e.OldValues, len(e.OldValues))
	if err != nil {
		return Record{}, fmt.Errorf("audit: old values of %s: %w", e.EntityType, err)
	}
	newJSON, err := marshalNullable(e.NewValues, len(e.NewValues))
	if err != nil {
		return Record{}, fmt.Errorf("audit: new values of %s: %w", e.EntityType, err)
	}
	changedJSON, err := marshalNullable(e.ChangedFields, len(e.ChangedFields))
	if err != nil {
		return Record{}, fmt.Errorf("audit: changed fields of %s: %w", e.EntityType, err)
	}
	return Record{
		ActorUserID:         actor.UserID,
		ActorOrganisationID: actor.OrganisationID,
		ActorServiceID:      actor.ServiceID,
		Timestamp:           Timestamp(ts),
		EntityType:          e.EntityType,
		Operation:           e.Operation,
		InternalID:          e.InternalID,
		ExternalID:          e.ExternalID,
		OldValuesJSON:       oldJSON,
		NewValuesJSON:       newJSON,
		ChangedFieldsJSON:   changedJSON,
	}, nil
}

// NewRecords serialises every entry with the same actor and timestamp.
func NewRecords(entries []*Entry, actor Actor, ts time.Time) ([]Record, error) {
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		r, err := NewRecord(e, actor, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func marshalNullable(v any, n int) (*string, error) {
	if n == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func (r Record) Actor() Actor {
	return Actor{UserID: r.ActorUserID, OrganisationID: r.ActorOrganisationID, ServiceID: r.ActorServiceID}
}

// OldValues decodes OldValuesJSON. NULL decodes to nil.
func (r Record) OldValues() (Values, error) { return decodeValues(r.OldValuesJSON) }

// NewValues decodes NewValuesJSON. NULL decodes to nil.
func (r Record) NewValues() (Values, error) { return decodeValues(r.NewValuesJSON) }

func (r Record) ChangedFields() ([]string, error) {
	if r.ChangedFieldsJSON == nil {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*r.ChangedFieldsJSON), &out); err != nil {
		return nil, fmt.Errorf("audit: record %d changed fields: %w", r.ID, err)
	}
	return out, nil
}

func decodeValues(s *string) (Values, error) {
	if s == nil {
		return nil, nil
	}
	var v Values
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
