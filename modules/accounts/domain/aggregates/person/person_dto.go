package person

import (
	"strings"

	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/serrors"
)

type CreateDTO struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Telephone string `json:"telephone" validate:"omitempty,e164"`
}

func (d *CreateDTO) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Email = NormalizeEmail(d.Email)
	d.Telephone = strings.TrimSpace(d.Telephone)
}

func (d *CreateDTO) Validate() error {
	d.Normalize()
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}

func (d *CreateDTO) ToEntity() *Person {
	return New(d.FirstName, d.LastName, d.Email, &d.Telephone)
}

type UpdateContactDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Telephone string `json:"telephone" validate:"omitempty,e164"`
}

func (d *UpdateContactDTO) Validate() error {
	d.Email = NormalizeEmail(d.Email)
	d.Telephone = strings.TrimSpace(d.Telephone)
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}
