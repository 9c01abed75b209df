package person_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/person"
	"github.com/iota-uz/accounts/pkg/serrors"
)

func TestNew_NormalizesContact(t *testing.T) {
	t.Parallel()

	empty := " "
	p := person.New(" Ada ", "Lovelace ", " Ada@Example.COM ", &empty)
	require.Equal(t, "Ada Lovelace", p.FullName())
	require.Equal(t, "ada@example.com", p.Email())
	require.Nil(t, p.Telephone())

	tel := "+447700900123"
	p.UpdateContact("ada@new.example", &tel)
	require.Equal(t, "+447700900123", *p.Telephone())
}

func TestCreateDTO_Validate(t *testing.T) {
	t.Parallel()

	dto := &person.CreateDTO{FirstName: "Ada", LastName: "Lovelace", Email: "ADA@example.com"}
	require.NoError(t, dto.Validate())
	require.Equal(t, "ada@example.com", dto.Email)
	require.Nil(t, dto.ToEntity().Telephone())

	bad := &person.CreateDTO{FirstName: "Ada", LastName: "Lovelace", Email: "nope", Telephone: "0770"}
	var verrs serrors.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &verrs)
	require.Equal(t, serrors.ValidationErrors{"Email": "email", "Telephone": "e164"}, verrs)
}
