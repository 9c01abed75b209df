package committer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/committer"
	"github.com/iota-uz/accounts/pkg/composables"
	"github.com/iota-uz/accounts/pkg/itf"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type widget struct {
	ID        int64
	Ref       uuid.UUID
	Name      string
	Stamp     time.Time
	UpdatedAt time.Time
}

var widgetDescriptor = unitofwork.NewDescriptor[widget]("Widget", "widgets",
	unitofwork.Scalar("id", func(w *widget) int64 { return w.ID }, func(w *widget, v int64) { w.ID = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("ref", func(w *widget) uuid.UUID { return w.Ref }, func(w *widget, v uuid.UUID) { w.Ref = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("name", func(w *widget) string { return w.Name }, func(w *widget, v string) { w.Name = v }),
	unitofwork.Time("stamp", func(w *widget) time.Time { return w.Stamp }, func(w *widget, v time.Time) { w.Stamp = v },
		unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Time("updated_at", func(w *widget) time.Time { return w.UpdatedAt }, func(w *widget, v time.Time) { w.UpdatedAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
)

func (w *widget) Descriptor() *unitofwork.Descriptor { return widgetDescriptor }

func widgetDB(t *testing.T) context.Context {
	t.Helper()
	pool := itf.NewDatabase(t)
	ctx := composables.WithPool(context.Background(), pool)
	_, err := pool.Exec(ctx, `
		CREATE TABLE widgets (
			id         BIGSERIAL   PRIMARY KEY,
			ref        UUID        NOT NULL DEFAULT gen_random_uuid(),
			name       TEXT        NOT NULL UNIQUE,
			stamp      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE FUNCTION widgets_touch() RETURNS trigger AS $$
		BEGIN
			NEW.updated_at := clock_timestamp();
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;
		CREATE TRIGGER widgets_touch BEFORE INSERT OR UPDATE ON widgets
			FOR EACH ROW EXECUTE FUNCTION widgets_touch();`)
	require.NoError(t, err)
	return ctx
}

func TestIntegration_LifecycleIsAudited(t *testing.T) {
	ctx := widgetDB(t)
	c := committer.New(nil, committer.Options{})
	store := audit.NewStore()

	w := &widget{Name: "sprocket"}
	uow := unitofwork.New()
	require.NoError(t, uow.Add(w))
	res, err := c.Commit(ctx, uow, service)
	require.NoError(t, err)
	require.Equal(t, committer.StrategyTwoPhase, res.Strategy)
	require.Equal(t, 1, res.Attempts)
	require.Positive(t, w.ID)
	require.NotEqual(t, uuid.Nil, w.Ref)
	require.False(t, w.Stamp.IsZero())
	require.False(t, w.UpdatedAt.IsZero())

	w.Name = "cog"
	res, err = c.Commit(ctx, uow, service)
	require.NoError(t, err)
	require.Equal(t, committer.StrategyTwoPhase, res.Strategy)

	require.NoError(t, uow.Remove(w))
	res, err = c.Commit(ctx, uow, service)
	require.NoError(t, err)
	require.Equal(t, committer.StrategySinglePhase, res.Strategy)
	require.Zero(t, uow.Len())

	history, err := store.ListByEntity(ctx, audit.EntityRef{EntityType: "Widget", InternalID: &w.ID})
	require.NoError(t, err)
	require.Len(t, history, 3)
	ops := make([]audit.Operation, len(history))
	for i, r := range history {
		ops[i] = r.Operation
		require.Equal(t, w.Ref, *r.ExternalID)
		require.Equal(t, service, r.Actor())
		require.NoError(t, r.Verify("updated_at"))
	}
	require.Equal(t, []audit.Operation{audit.OperationCreated, audit.OperationUpdated, audit.OperationDeleted}, ops)

	changed, err := history[1].ChangedFields()
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, changed)
	created, err := history[0].NewValues()
	require.NoError(t, err)
	require.Equal(t, w.Ref.String(), created.Map()["ref"])
}

func TestIntegration_FailedWriteLeavesNoAudit(t *testing.T) {
	ctx := widgetDB(t)
	c := committer.New(nil, committer.Options{})

	first := &widget{Name: "dup"}
	uow := unitofwork.New()
	require.NoError(t, uow.Add(first))
	_, err := c.Commit(ctx, uow, service)
	require.NoError(t, err)

	other := &widget{Name: "fresh"}
	clash := &widget{Name: "dup"}
	uow = unitofwork.New()
	require.NoError(t, uow.Add(other))
	require.NoError(t, uow.Add(clash))
	res, err := c.Commit(ctx, uow, service)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23505", pgErr.Code)
	require.Equal(t, 1, res.Attempts)
	require.Zero(t, other.ID)

	records, err := audit.NewStore().ListAfter(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, first.ID, *records[0].InternalID)

	state, ok := uow.State(other)
	require.True(t, ok)
	require.Equal(t, unitofwork.Created, state)
}

func TestIntegration_AuditLogIsAppendOnly(t *testing.T) {
	ctx := widgetDB(t)
	uow := unitofwork.New()
	require.NoError(t, uow.Add(&widget{Name: "kept"}))
	_, err := committer.New(nil, committer.Options{}).Commit(ctx, uow, service)
	require.NoError(t, err)

	pool, err := composables.UsePool(ctx)
	require.NoError(t, err)
	for _, stmt := range []string{
		`UPDATE audit_logs SET entity_type = 'Other'`,
		`DELETE FROM audit_logs`,
		`TRUNCATE audit_logs`,
	} {
		_, err := pool.Exec(ctx, stmt)
		var pgErr *pgconn.PgError
		require.ErrorAs(t, err, &pgErr, stmt)
		require.Equal(t, "42501", pgErr.Code, stmt)
	}

	records, err := audit.NewStore().ListAfter(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Widget", records[0].EntityType)
}
