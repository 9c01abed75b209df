package compliancescheme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/compliancescheme"
	"github.com/iota-uz/accounts/pkg/serrors"
)

func TestCreateDTO(t *testing.T) {
	t.Parallel()

	dto := &compliancescheme.CreateDTO{Name: " Green Scheme ", Nation: "Scotland"}
	require.NoError(t, dto.Validate())
	s := dto.ToEntity()
	require.Equal(t, "Green Scheme", s.Name())
	require.Equal(t, "scotland", s.Nation())

	require.ErrorIs(t, (&compliancescheme.CreateDTO{Name: "x", Nation: "france"}).Validate(), serrors.ErrValidation)
}
