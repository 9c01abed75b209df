package enrolment

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrNotFound        = serrors.NewError("ENROLMENT_NOT_FOUND", "enrolment not found", "Errors.EnrolmentNotFound")
	ErrAlreadyEnrolled = serrors.NewError("ENROLMENT_EXISTS", "person is already enrolled in this organisation", "Errors.EnrolmentExists")
)

type ServiceRole string

const (
	RoleApprovedPerson  ServiceRole = "approved_person"
	RoleDelegatedPerson ServiceRole = "delegated_person"
	RoleBasicUser       ServiceRole = "basic_user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRemoved  Status = "removed"
)

// Enrolment links a person to an organisation in a service role.
type Enrolment struct {
	id             int64
	externalID     uuid.UUID
	organisationID int64
	personID       int64
	serviceRole    ServiceRole
	status         Status
	createdAt      time.Time
	lastUpdatedOn  time.Time
	isDeleted      bool
}

func New(organisationID, personID int64, role ServiceRole) *Enrolment {
	return &Enrolment{
		organisationID: organisationID,
		personID:       personID,
		serviceRole:    role,
		status:         StatusPending,
	}
}

func Hydrate(
	id int64,
	externalID uuid.UUID,
	organisationID int64,
	personID int64,
	serviceRole ServiceRole,
	status Status,
	createdAt time.Time,
	lastUpdatedOn time.Time,
	isDeleted bool,
) *Enrolment {
	return &Enrolment{
		id:             id,
		externalID:     externalID,
		organisationID: organisationID,
		personID:       personID,
		serviceRole:    serviceRole,
		status:         status,
		createdAt:      createdAt,
		lastUpdatedOn:  lastUpdatedOn,
		isDeleted:      isDeleted,
	}
}

func (e *Enrolment) ID() int64                { return e.id }
func (e *Enrolment) ExternalID() uuid.UUID    { return e.externalID }
func (e *Enrolment) OrganisationID() int64    { return e.organisationID }
func (e *Enrolment) PersonID() int64          { return e.personID }
func (e *Enrolment) ServiceRole() ServiceRole { return e.serviceRole }
func (e *Enrolment) Status() Status           { return e.status }
func (e *Enrolment) CreatedAt() time.Time     { return e.createdAt }
func (e *Enrolment) LastUpdatedOn() time.Time { return e.lastUpdatedOn }
func (e *Enrolment) IsDeleted() bool          { return e.isDeleted }

// ChangeStatus sets the status as given; transition rules live with the caller.
func (e *Enrolment) ChangeStatus(status Status) {
	e.status = status
}

func (e *Enrolment) ChangeRole(role ServiceRole) {
	e.serviceRole = role
}

func (e *Enrolment) SoftDelete() {
	e.isDeleted = true
}
