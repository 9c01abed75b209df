package enrolment

import (
	"context"
)

type Repository interface {
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*Enrolment, error)
	// Find returns the live enrolment of a person in an organisation.
	Find(ctx context.Context, organisationID, personID int64) (*Enrolment, error)
	ListByOrganisation(ctx context.Context, organisationID int64, includeDeleted bool) ([]*Enrolment, error)
}
