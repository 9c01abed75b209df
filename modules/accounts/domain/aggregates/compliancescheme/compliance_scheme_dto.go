package compliancescheme

import (
	"strings"

	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/serrors"
)

type CreateDTO struct {
	Name   string `json:"name" validate:"required,max=160"`
	Nation string `json:"nation" validate:"required,oneof=england scotland wales northern_ireland"`
}

func (d *CreateDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Nation = strings.ToLower(strings.TrimSpace(d.Nation))
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}

func (d *CreateDTO) ToEntity() *ComplianceScheme {
	return New(d.Name, d.Nation)
}
