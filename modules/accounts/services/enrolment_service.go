package services

import (
	"context"
	"errors"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/enrolment"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/organisation"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/person"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type EnrolmentService struct {
	repo          enrolment.Repository
	organisations organisation.Repository
	persons       person.Repository
	committer     Committer
}

func NewEnrolmentService(
	repo enrolment.Repository,
	organisations organisation.Repository,
	persons person.Repository,
	committer Committer,
) *EnrolmentService {
	return &EnrolmentService{
		repo:          repo,
		organisations: organisations,
		persons:       persons,
		committer:     committer,
	}
}

func (s *EnrolmentService) ListByOrganisation(ctx context.Context, organisationID int64) ([]*enrolment.Enrolment, error) {
	return s.repo.ListByOrganisation(ctx, organisationID, false)
}

// Enrol links an existing person to an existing organisation with a pending status.
func (s *EnrolmentService) Enrol(ctx context.Context, dto *enrolment.EnrolDTO) (*enrolment.Enrolment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.organisations.GetByID(ctx, dto.OrganisationID, false); err != nil {
		return nil, err
	}
	if _, err := s.persons.GetByID(ctx, dto.PersonID, false); err != nil {
		return nil, err
	}
	_, err := s.repo.Find(ctx, dto.OrganisationID, dto.PersonID)
	if err == nil {
		return nil, enrolment.ErrAlreadyEnrolled
	}
	if !errors.Is(err, enrolment.ErrNotFound) {
		return nil, err
	}

	entity := dto.ToEntity()
	uow := unitofwork.New()
	if err := uow.Add(entity); err != nil {
		return nil, err
	}
	if err := commit(ctx, s.committer, uow); err != nil {
		return nil, err
	}
	return entity, nil
}

// ChangeStatus sets any status; transitions are not validated.
func (s *EnrolmentService) ChangeStatus(ctx context.Context, id int64, dto *enrolment.ChangeStatusDTO) (*enrolment.Enrolment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	entity, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	uow := unitofwork.New()
	if err := uow.Attach(entity); err != nil {
		return nil, err
	}
	entity.ChangeStatus(dto.Status)
	if err := commit(ctx, s.committer, uow); err != nil {
		return nil, err
	}
	return entity, nil
}
