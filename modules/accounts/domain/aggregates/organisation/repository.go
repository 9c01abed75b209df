package organisation

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	ComplianceSchemeID *int64
	IncludeDeleted     bool
	Limit              int
	Offset             int
}

type Repository interface {
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*Organisation, error)
	GetByExternalID(ctx context.Context, externalID uuid.UUID, includeDeleted bool) (*Organisation, error)
	GetByCompaniesHouseNo(ctx context.Context, number string) (*Organisation, error)
	List(ctx context.Context, params *FindParams) ([]*Organisation, error)
}
