package audit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/accounts/pkg/composables"
)

const DefaultTable = "audit_logs"

const recordColumns = `
	id,
	actor_user_id,
	actor_organisation_id,
	actor_service_id,
	"timestamp",
	entity_type,
	operation,
	internal_id,
	external_id,
	old_values::text,
	new_values::text,
	changed_fields::text`

// Store appends to and reads from the audit log table. It only ever issues INSERT and SELECT.
type Store struct {
	table string
}

func NewStore() *Store {
	return &Store{table: DefaultTable}
}

// NewStoreForTable is used by tests that keep audit rows in a scratch table.
func NewStoreForTable(table string) *Store {
	return &Store{table: pgx.Identifier{table}.Sanitize()}
}

// InsertStatement renders the INSERT for r. The JSON columns are json, not jsonb, so the
// stored text keeps field declaration order. The statement returns the new row id and can be
// queued on a pgx.Batch next to the business writes it audits.
func (s *Store) InsertStatement(r Record) (string, []any) {
	sql := `
		INSERT INTO ` + s.table + ` (
			actor_user_id,
			actor_organisation_id,
			actor_service_id,
			"timestamp",
			entity_type,
			operation,
			internal_id,
			external_id,
			old_values,
			new_values,
			changed_fields
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::text::json,$10::text::json,$11::text::json)
		RETURNING id`
	return sql, []any{
		pgUUIDPtr(r.ActorUserID),
		pgUUIDPtr(r.ActorOrganisationID),
		pgTextPtr(r.ActorServiceID),
		r.Timestamp,
		r.EntityType,
		string(r.Operation),
		pgInt8Ptr(r.InternalID),
		pgUUIDPtr(r.ExternalID),
		pgTextPtr(r.OldValuesJSON),
		pgTextPtr(r.NewValuesJSON),
		pgTextPtr(r.ChangedFieldsJSON),
	}
}

// Append writes a single record through the transaction in ctx and returns its id.
func (s *Store) Append(ctx context.Context, r Record) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	sql, args := s.InsertStatement(r)
	var id int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "append audit record for %s", r.EntityType)
	}
	return id, nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return Record{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM `+s.table+` WHERE id=$1`, id)
	r, err := scanRecord(row)
	if err != nil {
		return Record{}, errors.Wrapf(err, "get audit record %d", id)
	}
	return r, nil
}

// EntityRef identifies one entity in the audit trail. Either id may be nil; a record matches
// when any non-nil id matches.
type EntityRef struct {
	EntityType string
	InternalID *int64
	ExternalID *uuid.UUID
}

// ListByEntity returns the history of one entity, oldest first.
func (s *Store) ListByEntity(ctx context.Context, ref EntityRef) ([]Record, error) {
	if ref.InternalID == nil && ref.ExternalID == nil {
		return nil, errors.New("list audit records: internal or external id is required")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE entity_type=$1
		  AND (($2::bigint IS NOT NULL AND internal_id=$2) OR ($3::uuid IS NOT NULL AND external_id=$3))
		ORDER BY "timestamp", id`,
		ref.EntityType, pgInt8Ptr(ref.InternalID), pgUUIDPtr(ref.ExternalID))
	if err != nil {
		return nil, errors.Wrap(err, "list audit records by entity")
	}
	return collect(rows)
}

// ListByCorrelation returns every record written by one commit call: the records sharing the
// same actor and timestamp.
func (s *Store) ListByCorrelation(ctx context.Context, actor Actor, ts time.Time) ([]Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE "timestamp"=$1
		  AND actor_user_id IS NOT DISTINCT FROM $2
		  AND actor_organisation_id IS NOT DISTINCT FROM $3
		  AND actor_service_id IS NOT DISTINCT FROM $4
		ORDER BY id`,
		Timestamp(ts), pgUUIDPtr(actor.UserID), pgUUIDPtr(actor.OrganisationID), pgTextPtr(actor.ServiceID))
	if err != nil {
		return nil, errors.Wrap(err, "list audit records by correlation")
	}
	return collect(rows)
}

// ListAfter pages through the whole log in id order.
func (s *Store) ListAfter(ctx context.Context, afterID int64, limit int) ([]Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+recordColumns+`
		FROM `+s.table+`
		WHERE id > $1
		ORDER BY id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list audit records")
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r                    Record
		userID, orgID, extID pgtype.UUID
		serviceID            pgtype.Text
		internalID           pgtype.Int8
		operation            string
		oldJSON, newJSON     pgtype.Text
		changedJSON          pgtype.Text
	)
	if err := row.Scan(
		&r.ID,
		&userID,
		&orgID,
		&serviceID,
		&r.Timestamp,
		&r.EntityType,
		&operation,
		&internalID,
		&extID,
		&oldJSON,
		&newJSON,
		&changedJSON,
	); err != nil {
		return Record{}, err
	}
	r.Timestamp = r.Timestamp.UTC()
	r.Operation = Operation(operation)
	r.ActorUserID = uuidFromPg(userID)
	r.ActorOrganisationID = uuidFromPg(orgID)
	r.ExternalID = uuidFromPg(extID)
	r.ActorServiceID = textFromPg(serviceID)
	r.OldValuesJSON = textFromPg(oldJSON)
	r.NewValuesJSON = textFromPg(newJSON)
	r.ChangedFieldsJSON = textFromPg(changedJSON)
	if internalID.Valid {
		id := internalID.Int64
		r.InternalID = &id
	}
	return r, nil
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func pgTextPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func pgInt8Ptr(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func uuidFromPg(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func textFromPg(v pgtype.Text) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
