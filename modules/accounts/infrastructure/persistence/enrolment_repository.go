package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/enrolment"
	"github.com/iota-uz/accounts/pkg/composables"
)

const enrolmentColumns = `id, external_id, organisation_id, person_id, service_role, status,
	created_at, last_updated_on, is_deleted`

type EnrolmentRepository struct{}

func NewEnrolmentRepository() enrolment.Repository {
	return &EnrolmentRepository{}
}

func (r *EnrolmentRepository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*enrolment.Enrolment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, "SELECT "+enrolmentColumns+" FROM enrolments WHERE id = $1"+liveClause(includeDeleted), id)
	e, err := scanEnrolment(row)
	if err != nil {
		return nil, notFound(err, enrolment.ErrNotFound)
	}
	return e, nil
}

func (r *EnrolmentRepository) Find(ctx context.Context, organisationID, personID int64) (*enrolment.Enrolment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, "SELECT "+enrolmentColumns+` FROM enrolments
		WHERE organisation_id = $1 AND person_id = $2 AND NOT is_deleted
		ORDER BY id LIMIT 1`, organisationID, personID)
	e, err := scanEnrolment(row)
	if err != nil {
		return nil, notFound(err, enrolment.ErrNotFound)
	}
	return e, nil
}

func (r *EnrolmentRepository) ListByOrganisation(ctx context.Context, organisationID int64, includeDeleted bool) ([]*enrolment.Enrolment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, "SELECT "+enrolmentColumns+" FROM enrolments WHERE organisation_id = $1"+
		liveClause(includeDeleted)+" ORDER BY id", organisationID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list enrolments")
	}
	return collect(rows, scanEnrolment)
}

func scanEnrolment(row pgx.Row) (*enrolment.Enrolment, error) {
	var (
		id             int64
		externalID     uuid.UUID
		organisationID int64
		personID       int64
		serviceRole    string
		status         string
		createdAt      time.Time
		lastUpdatedOn  time.Time
		isDeleted      bool
	)
	if err := row.Scan(
		&id, &externalID, &organisationID, &personID, &serviceRole, &status,
		&createdAt, &lastUpdatedOn, &isDeleted,
	); err != nil {
		return nil, err
	}
	return enrolment.Hydrate(
		id, externalID, organisationID, personID, enrolment.ServiceRole(serviceRole),
		enrolment.Status(status), createdAt, lastUpdatedOn, isDeleted,
	), nil
}
