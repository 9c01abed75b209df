package serrors_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/serrors"
)

type signup struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,max=5"`
}

func TestProcessValidatorErrors(t *testing.T) {
	v := validator.New()

	err := serrors.ProcessValidatorErrors(v.Struct(signup{Email: "nope", Name: "too long"}))
	require.ErrorIs(t, err, serrors.ErrValidation)

	var verrs serrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, serrors.ValidationErrors{"Email": "email", "Name": "max=5"}, verrs)
	require.Equal(t, "validation failed: Email: email, Name: max=5", err.Error())

	require.NoError(t, serrors.ProcessValidatorErrors(v.Struct(signup{Email: "a@b.co", Name: "Ada"})))

	other := errors.New("boom")
	require.Equal(t, other, serrors.ProcessValidatorErrors(other))
}
