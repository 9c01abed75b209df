package enrolment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/enrolment"
	"github.com/iota-uz/accounts/pkg/serrors"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

func TestEnrolDTO(t *testing.T) {
	t.Parallel()

	dto := &enrolment.EnrolDTO{OrganisationID: 1, PersonID: 2, ServiceRole: enrolment.RoleApprovedPerson}
	require.NoError(t, dto.Validate())
	e := dto.ToEntity()
	require.Equal(t, enrolment.StatusPending, e.Status())

	require.ErrorIs(t, (&enrolment.EnrolDTO{ServiceRole: "owner"}).Validate(), serrors.ErrValidation)
	require.ErrorIs(t, (&enrolment.ChangeStatusDTO{Status: "archived"}).Validate(), serrors.ErrValidation)
}

func TestNewEnrolment_PendsGeneratedColumns(t *testing.T) {
	t.Parallel()

	uow := unitofwork.New()
	require.NoError(t, uow.Add(enrolment.New(1, 2, enrolment.RoleBasicUser)))

	r := uow.Records()[0]
	var pending []string
	for i, f := range enrolment.Descriptor().Fields() {
		if r.IsPending(i) {
			pending = append(pending, f.Name())
		}
	}
	require.Equal(t, []string{"id", "external_id", "created_at", "last_updated_on"}, pending)
}
