package audit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/serrors"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

var (
	ErrGeneratedValueMissing = serrors.NewError("AUDIT_GENERATED_VALUE_MISSING", "store did not return a generated value", "")
	ErrUnresolved            = serrors.NewError("AUDIT_ENTRY_UNRESOLVED", "audit entry still has pending generated fields", "")
)

type Operation string

const (
	OperationCreated Operation = "Created"
	OperationUpdated Operation = "Updated"
	OperationDeleted Operation = "Deleted"
)

func operationOf(s unitofwork.State) (Operation, bool) {
	switch s {
	case unitofwork.Created:
		return OperationCreated, true
	case unitofwork.Updated:
		return OperationUpdated, true
	case unitofwork.Deleted:
		return OperationDeleted, true
	default:
		return "", false
	}
}

// FieldRef points at a store-generated field whose value is filled in after the business write.
type FieldRef struct {
	Field string
	Index int
	Role  unitofwork.Role
}

// Entry is the in-memory audit entry for one mutated record. Entries are rebuilt on every
// commit attempt and discarded afterwards.
type Entry struct {
	EntityType    string
	Operation     Operation
	InternalID    *int64
	ExternalID    *uuid.UUID
	OldValues     Values
	NewValues     Values
	ChangedFields []string
	Pending       []FieldRef

	// Source is the record the entry was built from.
	Source unitofwork.Record
}

// Build returns one entry per Created, Updated or Deleted record, in record order.
// Unchanged records are skipped.
func Build(records []unitofwork.Record) []*Entry {
	entries := make([]*Entry, 0, len(records))
	for _, r := range records {
		if e, ok := BuildEntry(r); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// BuildEntry builds the entry for a single record. It reports false for Unchanged records.
func BuildEntry(r unitofwork.Record) (*Entry, bool) {
	op, ok := operationOf(r.State)
	if !ok {
		return nil, false
	}
	changes := r.Changes()
	e := &Entry{
		EntityType: r.Descriptor.Name(),
		Operation:  op,
		Source:     r,
	}
	if op != OperationCreated {
		e.OldValues = make(Values, 0, len(changes))
	}
	if op != OperationDeleted {
		e.NewValues = make(Values, 0, len(changes))
	}
	for i, c := range changes {
		if c.HasPrior {
			e.OldValues = append(e.OldValues, Value{Field: c.Field, Value: c.Prior})
		}
		if c.HasCurrent {
			e.NewValues = append(e.NewValues, Value{Field: c.Field, Value: c.Current})
		}
		if c.Modified {
			e.ChangedFields = append(e.ChangedFields, c.Field)
		}
		if c.Pending {
			e.Pending = append(e.Pending, FieldRef{Field: c.Field, Index: i, Role: c.Role})
			continue
		}
		v := c.Current
		if !c.HasCurrent {
			v = c.Prior
		}
		e.setIdentity(c.Role, v)
	}
	return e, true
}

// IsPending reports whether the entry still waits for store-generated values.
func (e *Entry) IsPending() bool { return len(e.Pending) > 0 }

// Resolve merges store-generated values, keyed by field name, into the entry and clears
// Pending. A pending field without a value is an ErrGeneratedValueMissing; the entry is left
// untouched in that case.
func (e *Entry) Resolve(generated map[string]any) error {
	for _, ref := range e.Pending {
		if _, ok := generated[ref.Field]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrGeneratedValueMissing, e.EntityType, ref.Field)
		}
	}
	for _, ref := range e.Pending {
		v := generated[ref.Field]
		e.NewValues = e.NewValues.Set(ref.Field, v)
		e.setIdentity(ref.Role, v)
	}
	e.Pending = nil
	return nil
}

func (e *Entry) setIdentity(role unitofwork.Role, v any) {
	switch role {
	case unitofwork.RoleInternalID:
		if id, ok := asInt64(v); ok {
			e.InternalID = &id
		}
	case unitofwork.RoleExternalID:
		if id, ok := asUUID(v); ok {
			e.ExternalID = &id
		}
	}
}

// RequiresTwoPhase reports whether any entry depends on values the store assigns during
// the write.
func RequiresTwoPhase(entries []*Entry) bool {
	for _, e := range entries {
		if e.IsPending() {
			return true
		}
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case *int64:
		if x == nil {
			return 0, false
		}
		return *x, true
	default:
		return 0, false
	}
}

func asUUID(v any) (uuid.UUID, bool) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, x != uuid.Nil
	case *uuid.UUID:
		if x == nil || *x == uuid.Nil {
			return uuid.Nil, false
		}
		return *x, true
	case [16]byte:
		id := uuid.UUID(x)
		return id, id != uuid.Nil
	default:
		return uuid.Nil, false
	}
}
