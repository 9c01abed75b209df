package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/compliancescheme"
	"github.com/iota-uz/accounts/pkg/composables"
)

const schemeColumns = "id, external_id, name, nation, created_at, last_updated_on, is_deleted"

type ComplianceSchemeRepository struct{}

func NewComplianceSchemeRepository() compliancescheme.Repository {
	return &ComplianceSchemeRepository{}
}

func (r *ComplianceSchemeRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*compliancescheme.ComplianceScheme, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, "SELECT "+schemeColumns+" FROM compliance_schemes WHERE id = $1"+liveClause(includeDeleted), id)
	s, err := scanScheme(row)
	if err != nil {
		return nil, notFound(err, compliancescheme.ErrNotFound)
	}
	return s, nil
}

// List returns live schemes, optionally restricted to one nation.
func (r *ComplianceSchemeRepository) List(ctx context.Context, nation string) ([]*compliancescheme.ComplianceScheme, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, "SELECT "+schemeColumns+` FROM compliance_schemes
		WHERE NOT is_deleted AND ($1 = '' OR nation = $1) ORDER BY name, id`, nation)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list compliance schemes")
	}
	return collect(rows, scanScheme)
}

func scanScheme(row pgx.Row) (*compliancescheme.ComplianceScheme, error) {
	var (
		id            int64
		externalID    uuid.UUID
		name          string
		nation        string
		createdAt     time.Time
		lastUpdatedOn time.Time
		isDeleted     bool
	)
	if err := row.Scan(&id, &externalID, &name, &nation, &createdAt, &lastUpdatedOn, &isDeleted); err != nil {
		return nil, err
	}
	return compliancescheme.Hydrate(id, externalID, name, nation, createdAt, lastUpdatedOn, isDeleted), nil
}
