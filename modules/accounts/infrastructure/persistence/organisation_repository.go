package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/organisation"
	"github.com/iota-uz/accounts/pkg/composables"
	"github.com/iota-uz/accounts/pkg/repo"
)

const organisationColumns = `id, external_id, name, organisation_type, companies_house_no,
	compliance_scheme_id, nations, created_at, last_updated_on, is_deleted`

type OrganisationRepository struct{}

func NewOrganisationRepository() organisation.Repository {
	return &OrganisationRepository{}
}

func (r *OrganisationRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*organisation.Organisation, error) {
	return r.getOne(ctx, "id = $1"+liveClause(includeDeleted), id)
}

func (r *OrganisationRepository) GetByExternalID(ctx context.Context, externalID uuid.UUID, includeDeleted bool) (*organisation.Organisation, error) {
	return r.getOne(ctx, "external_id = $1"+liveClause(includeDeleted), externalID)
}

func (r *OrganisationRepository) GetByCompaniesHouseNo(ctx context.Context, number string) (*organisation.Organisation, error) {
	return r.getOne(ctx, "companies_house_no = $1 AND NOT is_deleted", strings.ToUpper(strings.TrimSpace(number)))
}

func (r *OrganisationRepository) List(ctx context.Context, params *organisation.FindParams) ([]*organisation.Organisation, error) {
	if params == nil {
		params = &organisation.FindParams{}
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where := []string{"TRUE"}
	var args []any
	if !params.IncludeDeleted {
		where = append(where, "NOT is_deleted")
	}
	if params.ComplianceSchemeID != nil {
		args = append(args, *params.ComplianceSchemeID)
		where = append(where, fmt.Sprintf("compliance_scheme_id = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM organisations WHERE %s ORDER BY id %s",
		organisationColumns, strings.Join(where, " AND "), repo.FormatLimitOffset(params.Limit, params.Offset))
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list organisations")
	}
	return collect(rows, scanOrganisation)
}

func (r *OrganisationRepository) getOne(ctx context.Context, where string, args ...any) (*organisation.Organisation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, "SELECT "+organisationColumns+" FROM organisations WHERE "+where, args...)
	o, err := scanOrganisation(row)
	if err != nil {
		return nil, notFound(err, organisation.ErrNotFound)
	}
	return o, nil
}

func scanOrganisation(row pgx.Row) (*organisation.Organisation, error) {
	var (
		id                 int64
		externalID         uuid.UUID
		name               string
		organisationType   string
		companiesHouseNo   *string
		complianceSchemeID *int64
		nations            []string
		createdAt          time.Time
		lastUpdatedOn      time.Time
		isDeleted          bool
	)
	if err := row.Scan(
		&id, &externalID, &name, &organisationType, &companiesHouseNo,
		&complianceSchemeID, &nations, &createdAt, &lastUpdatedOn, &isDeleted,
	); err != nil {
		return nil, err
	}
	return organisation.Hydrate(
		id, externalID, name, organisation.Type(organisationType), companiesHouseNo,
		complianceSchemeID, nations, createdAt, lastUpdatedOn, isDeleted,
	), nil
}
