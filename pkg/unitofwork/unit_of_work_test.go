package unitofwork_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type widget struct {
	ID         int64
	ExternalID uuid.UUID
	Name       string
	Tags       []string
	Note       *string
	UpdatedAt  time.Time
}

var widgetDescriptor = unitofwork.NewDescriptor[widget]("Widget", "widgets",
	unitofwork.Scalar("id",
		func(w *widget) int64 { return w.ID },
		func(w *widget, v int64) { w.ID = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("external_id",
		func(w *widget) uuid.UUID { return w.ExternalID },
		func(w *widget, v uuid.UUID) { w.ExternalID = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("name",
		func(w *widget) string { return w.Name },
		func(w *widget, v string) { w.Name = v }),
	unitofwork.Slice("tags",
		func(w *widget) []string { return w.Tags },
		func(w *widget, v []string) { w.Tags = v }),
	unitofwork.Nullable("note",
		func(w *widget) *string { return w.Note },
		func(w *widget, v *string) { w.Note = v }),
	unitofwork.Time("updated_at",
		func(w *widget) time.Time { return w.UpdatedAt },
		func(w *widget, v time.Time) { w.UpdatedAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
)

func (w *widget) Descriptor() *unitofwork.Descriptor { return widgetDescriptor }

func loadedWidget() *widget {
	note := "n"
	return &widget{
		ID:         7,
		ExternalID: uuid.MustParse("6f1c2a52-8d1e-4f7e-9a55-0a3c1d9b2e11"),
		Name:       "alpha",
		Tags:       []string{"a"},
		Note:       &note,
		UpdatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func changeByField(t *testing.T, changes []unitofwork.ChangeDescriptor, name string) unitofwork.ChangeDescriptor {
	t.Helper()
	for _, c := range changes {
		if c.Field == name {
			return c
		}
	}
	t.Fatalf("no change descriptor for %q", name)
	return unitofwork.ChangeDescriptor{}
}

func TestNewDescriptor_PanicsOnInvalidTable(t *testing.T) {
	name := unitofwork.Scalar("name",
		func(w *widget) string { return w.Name },
		func(w *widget, v string) { w.Name = v })

	require.Panics(t, func() {
		unitofwork.NewDescriptor[widget]("Widget", "widgets", name)
	}, "a descriptor without a key must be rejected")

	require.Panics(t, func() {
		unitofwork.NewDescriptor[widget]("Widget", "widgets",
			unitofwork.Scalar("id", func(w *widget) int64 { return w.ID }, func(w *widget, v int64) { w.ID = v }, unitofwork.Key()),
			name, name)
	}, "duplicate field names must be rejected")
}

func TestDescriptor_Lookup(t *testing.T) {
	require.Equal(t, "Widget", widgetDescriptor.Name())
	require.Equal(t, "widgets", widgetDescriptor.Table())
	require.Equal(t, 0, widgetDescriptor.InternalID())
	require.Equal(t, 1, widgetDescriptor.ExternalID())
	require.Equal(t, []int{0}, widgetDescriptor.Keys())
	require.Equal(t, 2, widgetDescriptor.FieldIndex("name"))
	require.Equal(t, -1, widgetDescriptor.FieldIndex("missing"))
}

func TestUnitOfWork_AttachedUntouchedIsUnchanged(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))

	records := uow.Records()
	require.Len(t, records, 1)
	require.Equal(t, unitofwork.Unchanged, records[0].State)
	require.Nil(t, records[0].Changes())
	require.False(t, uow.HasChanges())
}

func TestUnitOfWork_AttachTwiceFails(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))
	require.ErrorIs(t, uow.Attach(w), unitofwork.ErrAlreadyTracked)
	require.ErrorIs(t, uow.Add(w), unitofwork.ErrAlreadyTracked)
}

func TestUnitOfWork_UpdateMarksOnlyChangedFields(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))

	w.Name = "beta"

	records := uow.Records()
	require.Equal(t, unitofwork.Updated, records[0].State)

	changes := records[0].Changes()
	require.Len(t, changes, 6)

	name := changeByField(t, changes, "name")
	require.True(t, name.Modified)
	require.Equal(t, "alpha", name.Prior)
	require.Equal(t, "beta", name.Current)
	require.False(t, name.StoreGenerated)

	require.False(t, changeByField(t, changes, "tags").Modified)
	require.False(t, changeByField(t, changes, "note").Modified)

	id := changeByField(t, changes, "id")
	require.False(t, id.StoreGenerated, "generated-on-create columns are caller-owned on update")
	require.False(t, id.Pending)

	updated := changeByField(t, changes, "updated_at")
	require.True(t, updated.StoreGenerated)
	require.True(t, updated.Pending)
	require.False(t, updated.Modified)
}

func TestUnitOfWork_TouchingGeneratedOnUpdateColumnIsNotAnUpdate(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))

	w.UpdatedAt = w.UpdatedAt.Add(time.Hour)

	state, ok := uow.State(w)
	require.True(t, ok)
	require.Equal(t, unitofwork.Unchanged, state)
}

func TestUnitOfWork_NullableAndSliceCompareByValue(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))

	same := "n"
	w.Note = &same
	w.Tags = []string{"a"}
	state, _ := uow.State(w)
	require.Equal(t, unitofwork.Unchanged, state)

	w.Tags[0] = "b"
	state, _ = uow.State(w)
	require.Equal(t, unitofwork.Updated, state)
}

func TestUnitOfWork_CreatedClassifiesGeneratedFields(t *testing.T) {
	uow := unitofwork.New()
	supplied := uuid.New()
	w := &widget{ExternalID: supplied, Name: "new"}
	require.NoError(t, uow.Add(w))

	records := uow.Records()
	require.Equal(t, unitofwork.Created, records[0].State)
	changes := records[0].Changes()

	id := changeByField(t, changes, "id")
	require.True(t, id.StoreGenerated)
	require.True(t, id.Pending)
	require.False(t, id.HasPrior)
	require.True(t, id.HasCurrent)

	ext := changeByField(t, changes, "external_id")
	require.True(t, ext.StoreGenerated)
	require.False(t, ext.Pending, "a caller-supplied external id is already final")

	require.True(t, changeByField(t, changes, "updated_at").Pending)

	name := changeByField(t, changes, "name")
	require.False(t, name.Modified, "modified is only reported for updates")
}

func TestUnitOfWork_RemoveAttachedIsDeleted(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))
	require.NoError(t, uow.Remove(w))

	records := uow.Records()
	require.Equal(t, unitofwork.Deleted, records[0].State)
	for _, c := range records[0].Changes() {
		require.True(t, c.HasPrior)
		require.False(t, c.HasCurrent)
		require.False(t, c.StoreGenerated)
		require.False(t, c.Pending)
	}
	require.Equal(t, []any{int64(7)}, records[0].PriorKey())
}

func TestUnitOfWork_RemoveAddedForgetsIt(t *testing.T) {
	uow := unitofwork.New()
	w := &widget{Name: "temp"}
	require.NoError(t, uow.Add(w))
	require.NoError(t, uow.Remove(w))
	require.Zero(t, uow.Len())

	require.ErrorIs(t, uow.Remove(w), unitofwork.ErrNotTracked)
}

func TestUnitOfWork_RecordsAreSnapshots(t *testing.T) {
	uow := unitofwork.New()
	w := loadedWidget()
	require.NoError(t, uow.Attach(w))
	w.Name = "beta"

	records := uow.Records()

	w.Name = "gamma"
	w.Tags[0] = "mutated"
	*w.Note = "mutated"

	changes := records[0].Changes()
	require.Equal(t, "beta", changeByField(t, changes, "name").Current)
	require.Equal(t, []string{"a"}, changeByField(t, changes, "tags").Current)
	require.Equal(t, "n", *(changeByField(t, changes, "note").Current.(*string)))
	require.Equal(t, "n", *(changeByField(t, changes, "note").Prior.(*string)))
}

func TestUnitOfWork_AcceptChanges(t *testing.T) {
	uow := unitofwork.New()

	created := &widget{Name: "new"}
	loaded := loadedWidget()
	gone := loadedWidget()
	gone.ID = 8

	require.NoError(t, uow.Add(created))
	require.NoError(t, uow.Attach(loaded))
	require.NoError(t, uow.Attach(gone))
	require.NoError(t, uow.Remove(gone))
	loaded.Name = "renamed"

	stamp := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ext := uuid.New()
	uow.AcceptChanges(map[unitofwork.Entity]map[string]any{
		created: {"id": int64(42), "external_id": ext, "updated_at": stamp},
		loaded:  {"updated_at": stamp},
	})

	require.Equal(t, int64(42), created.ID)
	require.Equal(t, ext, created.ExternalID)
	require.Equal(t, stamp, loaded.UpdatedAt)
	require.Equal(t, 2, uow.Len())
	require.False(t, uow.HasChanges())

	_, tracked := uow.State(gone)
	require.False(t, tracked)
}

func TestUnitOfWork_RejectsForeignEntity(t *testing.T) {
	uow := unitofwork.New()
	require.ErrorIs(t, uow.Attach(impostor{}), unitofwork.ErrDescriptorInvalid)
}

type impostor struct{}

func (impostor) Descriptor() *unitofwork.Descriptor { return widgetDescriptor }

func TestField_ScanTargetReportsNull(t *testing.T) {
	f := widgetDescriptor.Fields()[0]
	dest, value := f.ScanTarget()
	_, ok := value()
	require.False(t, ok)

	*(dest.(**int64)) = new(int64)
	**(dest.(**int64)) = 99
	v, ok := value()
	require.True(t, ok)
	require.Equal(t, int64(99), v)
}
