package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/person"
	"github.com/iota-uz/accounts/pkg/composables"
)

const personColumns = `id, external_id, first_name, last_name, email, telephone,
	created_at, last_updated_on, is_deleted`

type PersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PersonRepository{}
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*person.Person, error) {
	return r.getOne(ctx, "id = $1"+liveClause(includeDeleted), id)
}

func (r *PersonRepository) GetByExternalID(ctx context.Context, externalID uuid.UUID, includeDeleted bool) (*person.Person, error) {
	return r.getOne(ctx, "external_id = $1"+liveClause(includeDeleted), externalID)
}

// GetByEmail matches case-insensitively against live persons only.
func (r *PersonRepository) GetByEmail(ctx context.Context, email string) (*person.Person, error) {
	return r.getOne(ctx, "lower(email) = $1 AND NOT is_deleted ORDER BY id LIMIT 1", person.NormalizeEmail(email))
}

func (r *PersonRepository) getOne(ctx context.Context, where string, args ...any) (*person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var (
		id            int64
		externalID    uuid.UUID
		firstName     string
		lastName      string
		email         string
		telephone     *string
		createdAt     time.Time
		lastUpdatedOn time.Time
		isDeleted     bool
	)
	err = tx.QueryRow(ctx, "SELECT "+personColumns+" FROM persons WHERE "+where, args...).Scan(
		&id, &externalID, &firstName, &lastName, &email, &telephone, &createdAt, &lastUpdatedOn, &isDeleted,
	)
	if err != nil {
		return nil, notFound(err, person.ErrNotFound)
	}
	return person.Hydrate(id, externalID, firstName, lastName, email, telephone, createdAt, lastUpdatedOn, isDeleted), nil
}
