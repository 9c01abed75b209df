package services

import (
	"context"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/compliancescheme"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type ComplianceSchemeService struct {
	repo      compliancescheme.Repository
	committer Committer
}

func NewComplianceSchemeService(repo compliancescheme.Repository, committer Committer) *ComplianceSchemeService {
	return &ComplianceSchemeService{repo: repo, committer: committer}
}

func (s *ComplianceSchemeService) List(ctx context.Context, nation string) ([]*compliancescheme.ComplianceScheme, error) {
	return s.repo.List(ctx, nation)
}

func (s *ComplianceSchemeService) Create(ctx context.Context, dto *compliancescheme.CreateDTO) (*compliancescheme.ComplianceScheme, error) {
	if err := dto.Validate(); err != nil {
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
