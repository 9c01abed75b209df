package enrolment

import (
	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/serrors"
)

type EnrolDTO struct {
	OrganisationID int64       `json:"organisation_id" validate:"required,gt=0"`
	PersonID       int64       `json:"person_id" validate:"required,gt=0"`
	ServiceRole    ServiceRole `json:"service_role" validate:"required,oneof=approved_person delegated_person basic_user"`
}

func (d *EnrolDTO) Validate() error {
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}

func (d *EnrolDTO) ToEntity() *Enrolment {
	return New(d.OrganisationID, d.PersonID, d.ServiceRole)
}

type ChangeStatusDTO struct {
	Status Status `json:"status" validate:"required,oneof=pending approved rejected removed"`
}

func (d *ChangeStatusDTO) Validate() error {
	return serrors.ProcessValidatorErrors(constants.Validate.Struct(d))
}
