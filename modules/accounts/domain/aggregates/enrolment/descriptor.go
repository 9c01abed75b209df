package enrolment

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/unitofwork"
)

const Table = "enrolments"

var descriptor = unitofwork.NewDescriptor[Enrolment]("Enrolment", Table,
	unitofwork.Scalar("id",
		func(e *Enrolment) int64 { return e.id },
		func(e *Enrolment, v int64) { e.id = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("external_id",
		func(e *Enrolment) uuid.UUID { return e.externalID },
		func(e *Enrolment, v uuid.UUID) { e.externalID = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("organisation_id",
		func(e *Enrolment) int64 { return e.organisationID },
		func(e *Enrolment, v int64) { e.organisationID = v }),
	unitofwork.Scalar("person_id",
		func(e *Enrolment) int64 { return e.personID },
		func(e *Enrolment, v int64) { e.personID = v }),
	unitofwork.Scalar("service_role",
		func(e *Enrolment) ServiceRole { return e.serviceRole },
		func(e *Enrolment, v ServiceRole) { e.serviceRole = v }),
	unitofwork.Scalar("status",
		func(e *Enrolment) Status { return e.status },
		func(e *Enrolment, v Status) { e.status = v }),
	unitofwork.Time("created_at",
		func(e *Enrolment) time.Time { return e.createdAt },
		func(e *Enrolment, v time.Time) { e.createdAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Time("last_updated_on",
		func(e *Enrolment) time.Time { return e.lastUpdatedOn },
		func(e *Enrolment, v time.Time) { e.lastUpdatedOn = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
	unitofwork.Scalar("is_deleted",
		func(e *Enrolment) bool { return e.isDeleted },
		func(e *Enrolment, v bool) { e.isDeleted = v }),
)

func (e *Enrolment) Descriptor() *unitofwork.Descriptor { return descriptor }

func Descriptor() *unitofwork.Descriptor { return descriptor }
