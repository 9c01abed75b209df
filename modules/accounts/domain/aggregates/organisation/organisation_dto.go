package organisation

import (
	"strings"

	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/serrors"
)

type CreateDTO struct {
	Name             string   `json:"name" validate:"required,max=160"`
	Type             Type     `json:"organisation_type" validate:"required,oneof=company charity sole_trader partnership"`
	CompaniesHouseNo string   `json:"companies_house_no" validate:"omitempty,alphanum,len=8"`
	Nations          []string `json:"nations" validate:"required,min=1,dive,oneof=england scotland wales northern_ireland"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.CompaniesHouseNo = strings.ToUpper(strings.TrimSpace(d.CompaniesHouseNo))
	for i, n := range d.Nations {
		d.Nations[i] = strings.ToLower(strings.TrimSpace(n))
	}
}

func (d *CreateDTO) Validate() error {
	d.Normalize()
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}

func (d *CreateDTO) ToEntity() *Organisation {
	var number *string
	if d.CompaniesHouseNo != "" {
		number = &d.CompaniesHouseNo
	}
	return New(d.Name, d.Type, number, d.Nations)
}

type RenameDTO struct {
	Name string `json:"name" validate:"required,max=160"`
}

func (d *RenameDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}
