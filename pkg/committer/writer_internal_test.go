package committer

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type enrolment struct {
	OrganisationID int64
	PersonID       int64
	Status         string
	Note           *string
	LastUpdatedOn  time.Time
}

var enrolmentDescriptor = unitofwork.NewDescriptor[enrolment]("Enrolment", "accounts.enrolments",
	unitofwork.Scalar("organisation_id", func(e *enrolment) int64 { return e.OrganisationID }, func(e *enrolment, v int64) { e.OrganisationID = v }, unitofwork.Key()),
	unitofwork.Scalar("person_id", func(e *enrolment) int64 { return e.PersonID }, func(e *enrolment, v int64) { e.PersonID = v }, unitofwork.Key()),
	unitofwork.Scalar("status", func(e *enrolment) string { return e.Status }, func(e *enrolment, v string) { e.Status = v }),
	unitofwork.Nullable("note", func(e *enrolment) *string { return e.Note }, func(e *enrolment, v *string) { e.Note = v }),
	unitofwork.Time("last_updated_on", func(e *enrolment) time.Time { return e.LastUpdatedOn }, func(e *enrolment, v time.Time) { e.LastUpdatedOn = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
)

func (e *enrolment) Descriptor() *unitofwork.Descriptor { return enrolmentDescriptor }

func onlyWrite(t *testing.T, uow *unitofwork.UnitOfWork) *write {
	t.Helper()
	entries := audit.Build(uow.Records())
	require.Len(t, entries, 1)
	return newWrite(entries[0])
}

func TestNewWrite_InsertOmitsPendingColumns(t *testing.T) {
	uow := unitofwork.New()
	require.NoError(t, uow.Add(&enrolment{OrganisationID: 1, PersonID: 2, Status: "pending"}))

	w := onlyWrite(t, uow)
	require.Equal(t,
		`INSERT INTO "accounts"."enrolments" ("organisation_id", "person_id", "status", "note") VALUES ($1, $2, $3, $4) RETURNING "last_updated_on"`,
		w.sql)
	require.Equal(t, []any{int64(1), int64(2), "pending", (*string)(nil)}, w.args)
}

func TestNewWrite_UpdateUsesPriorCompositeKey(t *testing.T) {
	uow := unitofwork.New()
	e := &enrolment{OrganisationID: 1, PersonID: 2, Status: "pending"}
	require.NoError(t, uow.Attach(e))
	e.Status = "approved"
	e.PersonID = 3

	w := onlyWrite(t, uow)
	require.Equal(t,
		`UPDATE "accounts"."enrolments" SET "person_id" = $1, "status" = $2 WHERE "organisation_id" = $3 AND "person_id" = $4 RETURNING "last_updated_on"`,
		w.sql)
	require.Equal(t, []any{int64(3), "approved", int64(1), int64(2)}, w.args)
}

func TestNewWrite_Delete(t *testing.T) {
	uow := unitofwork.New()
	e := &enrolment{OrganisationID: 1, PersonID: 2}
	require.NoError(t, uow.Attach(e))
	require.NoError(t, uow.Remove(e))

	w := onlyWrite(t, uow)
	require.Equal(t, `DELETE FROM "accounts"."enrolments" WHERE "organisation_id" = $1 AND "person_id" = $2`, w.sql)
	require.Empty(t, w.returning)
}

func TestTransientReason(t *testing.T) {
	tests := []struct {
		code   string
		reason string
		ok     bool
	}{
		{"40001", "serialization", true},
		{"40P01", "deadlock", true},
		{"08006", "connection", true},
		{"57P01", "shutdown", true},
		{"23505", "", false},
		{"22P02", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			reason, ok := transientReason(&pgconn.PgError{Code: tt.code})
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.reason, reason)
		})
	}
	_, ok := transientReason(context.Canceled)
	require.False(t, ok)
}
