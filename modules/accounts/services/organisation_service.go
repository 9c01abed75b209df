package services

import (
	"context"
	"errors"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/compliancescheme"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/enrolment"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/organisation"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

// OrganisationService provides audited operations on organisations
type OrganisationService struct {
	repo       organisation.Repository
	schemes    compliancescheme.Repository
	enrolments enrolment.Repository
	committer  Committer
}

func NewOrganisationService(
	repo organisation.Repository,
	schemes compliancescheme.Repository,
	enrolments enrolment.Repository,
	committer Committer,
) *OrganisationService {
	return &OrganisationService{
		repo:       repo,
		schemes:    schemes,
		enrolments: enrolments,
		committer:  committer,
	}
}

func (s *OrganisationService) GetByID(ctx context.Context, id int64) (*organisation.Organisation, error) {
	return s.repo.GetByID(ctx, id, false)
}

func (s *OrganisationService) List(ctx context.Context, params *organisation.FindParams) ([]*organisation.Organisation, error) {
	return s.repo.List(ctx, params)
}

// Create registers a new organisation. The returned entity carries the store-assigned id,
// external id and timestamps.
func (s *OrganisationService) Create(ctx context.Context, dto *organisation.CreateDTO) (*organisation.Organisation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.CompaniesHouseNo != "" {
		_, err := s.repo.GetByCompaniesHouseNo(ctx, dto.CompaniesHouseNo)
		if err == nil {
			return nil, organisation.ErrCompaniesHouseNoTaken
		}
		if !errors.Is(err, organisation.ErrNotFound) {
			return nil, err
		}
	}

	entity := dto.ToEntity()
	uow := unitofwork.New()
	if err := uow.Add(entity); err != nil {
		return nil, err
	}
	if err := commit(ctx, s.committer, uow); err != nil {
		if isUniqueViolation(err, "organisations_companies_house_no_key") {
			return nil, organisation.ErrCompaniesHouseNoTaken
		}
		return nil, err
	}
	return entity, nil
}

func (s *OrganisationService) Rename(ctx context.Context, id int64, dto *organisation.RenameDTO) (*organisation.Organisation, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(o *organisation.Organisation) error {
		o.Rename(dto.Name)
		return nil
	})
}

// JoinScheme makes the organisation a member of a live compliance scheme.
func (s *OrganisationService) JoinScheme(ctx context.Context, id, schemeID int64) (*organisation.Organisation, error) {
	if _, err := s.schemes.GetByID(ctx, schemeID, false); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(o *organisation.Organisation) error {
		o.JoinScheme(schemeID)
		return nil
	})
}

func (s *OrganisationService) LeaveScheme(ctx context.Context, id int64) (*organisation.Organisation, error) {
	return s.update(ctx, id, func(o *organisation.Organisation) error {
		o.LeaveScheme()
		return nil
	})
}

// SoftDelete flags the organisation and all of its live enrolments as deleted in one commit,
// so their audit records share a correlation.
func (s *OrganisationService) SoftDelete(ctx context.Context, id int64) error {
	entity, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return err
	}
	enrolments, err := s.enrolments.ListByOrganisation(ctx, id, false)
	if err != nil {
		return err
	}

	uow := unitofwork.New()
	if err := uow.Attach(entity); err != nil {
		return err
	}
	for _, e := range enrolments {
		if err := uow.Attach(e); err != nil {
			return err
		}
		e.SoftDelete()
	}
	entity.SoftDelete()
	return commit(ctx, s.committer, uow)
}

func (s *OrganisationService) update(ctx context.Context, id int64, mutate func(*organisation.Organisation) error) (*organisation.Organisation, error) {
	entity, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	uow := unitofwork.New()
	if err := uow.Attach(entity); err != nil {
		return nil, err
	}
	if err := mutate(entity); err != nil {
		return nil, err
	}
	if err := commit(ctx, s.committer, uow); err != nil {
		return nil, err
	}
	return entity, nil
}
