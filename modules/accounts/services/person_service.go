package services

import (
	"context"
	"errors"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/person"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

type PersonService struct {
	repo      person.Repository
	committer Committer
}

func NewPersonService(repo person.Repository, committer Committer) *PersonService {
	return &PersonService{repo: repo, committer: committer}
}

func (s *PersonService) GetByID(ctx context.Context, id int64) (*person.Person, error) {
	return s.repo.GetByID(ctx, id, false)
}

func (s *PersonService) Create(ctx context.Context, dto *person.CreateDTO) (*person.Person, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, dto.Email, 0); err != nil {
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

func (s *PersonService) UpdateContact(ctx context.Context, id int64, dto *person.UpdateContactDTO) (*person.Person, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, dto.Email, id); err != nil {
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
	entity.UpdateContact(dto.Email, &dto.Telephone)
	if err := commit(ctx, s.committer, uow); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *PersonService) SoftDelete(ctx context.Context, id int64) error {
	entity, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return err
	}
	uow := unitofwork.New()
	if err := uow.Attach(entity); err != nil {
		return err
	}
	entity.SoftDelete()
	return commit(ctx, s.committer, uow)
}

// ensureEmailFree fails when a live person other than self already uses email.
func (s *PersonService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, person.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID() != self:
		return person.ErrEmailTaken
	default:
		return nil
	}
}
