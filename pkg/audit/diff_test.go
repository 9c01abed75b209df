package audit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/audit"
)

func strPtr(s string) *string { return &s }

func TestRecord_PatchAndReconstruct(t *testing.T) {
	tests := []struct {
		name    string
		record  audit.Record
		rebuilt string
	}{
		{
			name: "created",
			record: audit.Record{
				Operation:     audit.OperationCreated,
				NewValuesJSON: strPtr(`{"a":1,"b":"x"}`),
			},
			rebuilt: `{"a":1,"b":"x"}`,
		},
		{
			name: "updated",
			record: audit.Record{
				Operation:         audit.OperationUpdated,
				OldValuesJSON:     strPtr(`{"a":1,"b":"x"}`),
				NewValuesJSON:     strPtr(`{"a":2,"b":"x"}`),
				ChangedFieldsJSON: strPtr(`["a"]`),
			},
			rebuilt: `{"a":2,"b":"x"}`,
		},
		{
			name: "deleted",
			record: audit.Record{
				Operation:     audit.OperationDeleted,
				OldValuesJSON: strPtr(`{"a":1}`),
			},
			rebuilt: `{}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := tt.record.Patch()
			require.NoError(t, err)
			require.NotEmpty(t, patch)

			out, err := tt.record.Reconstruct()
			require.NoError(t, err)
			require.JSONEq(t, tt.rebuilt, string(out))

			require.NoError(t, tt.record.Verify())
		})
	}
}

func TestRecord_VerifyDetectsWrongChangedFields(t *testing.T) {
	r := audit.Record{
		ID:                9,
		Operation:         audit.OperationUpdated,
		OldValuesJSON:     strPtr(`{"a":1,"b":"x","last_updated_on":"2025-01-01T00:00:00Z"}`),
		NewValuesJSON:     strPtr(`{"a":1,"b":"y","last_updated_on":"2025-01-02T00:00:00Z"}`),
		ChangedFieldsJSON: strPtr(`["a"]`),
	}
	require.Error(t, r.Verify("last_updated_on"))

	r.ChangedFieldsJSON = strPtr(`["b"]`)
	require.NoError(t, r.Verify("last_updated_on"))
	require.Error(t, r.Verify(), "a regenerated column counts as changed unless ignored")
}
