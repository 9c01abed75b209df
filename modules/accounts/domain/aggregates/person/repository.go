package person

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*Person, error)
	GetByExternalID(ctx context.Context, externalID uuid.UUID, includeDeleted bool) (*Person, error)
	GetByEmail(ctx context.Context, email string) (*Person, error)
}
