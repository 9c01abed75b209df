package compliancescheme

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/serrors"
	"github.com/iota-uz/accounts/pkg/unitofwork"
)

var ErrNotFound = serrors.NewError("COMPLIANCE_SCHEME_NOT_FOUND", "compliance scheme not found", "Errors.ComplianceSchemeNotFound")

const Table = "compliance_schemes"

// ComplianceScheme is an operator that takes on obligations for its member organisations.
type ComplianceScheme struct {
	id            int64
	externalID    uuid.UUID
	name          string
	nation        string
	createdAt     time.Time
	lastUpdatedOn time.Time
	isDeleted     bool
}

func New(name, nation string) *ComplianceScheme {
	return &ComplianceScheme{
		name:   strings.TrimSpace(name),
		nation: strings.ToLower(strings.TrimSpace(nation)),
	}
}

func Hydrate(id int64, externalID uuid.UUID, name, nation string, createdAt, lastUpdatedOn time.Time, isDeleted bool) *ComplianceScheme {
	return &ComplianceScheme{
		id:            id,
		externalID:    externalID,
		name:          name,
		nation:        nation,
		createdAt:     createdAt,
		lastUpdatedOn: lastUpdatedOn,
		isDeleted:     isDeleted,
	}
}

func (s *ComplianceScheme) ID() int64                { return s.id }
func (s *ComplianceScheme) ExternalID() uuid.UUID    { return s.externalID }
func (s *ComplianceScheme) Name() string             { return s.name }
func (s *ComplianceScheme) Nation() string           { return s.nation }
func (s *ComplianceScheme) CreatedAt() time.Time     { return s.createdAt }
func (s *ComplianceScheme) LastUpdatedOn() time.Time { return s.lastUpdatedOn }
func (s *ComplianceScheme) IsDeleted() bool          { return s.isDeleted }

func (s *ComplianceScheme) Rename(name string) { s.name = strings.TrimSpace(name) }
func (s *ComplianceScheme) SoftDelete()        { s.isDeleted = true }

var descriptor = unitofwork.NewDescriptor[ComplianceScheme]("ComplianceScheme", Table,
	unitofwork.Scalar("id",
		func(s *ComplianceScheme) int64 { return s.id },
		func(s *ComplianceScheme, v int64) { s.id = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("external_id",
		func(s *ComplianceScheme) uuid.UUID { return s.externalID },
		func(s *ComplianceScheme, v uuid.UUID) { s.externalID = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("name",
		func(s *ComplianceScheme) string { return s.name },
		func(s *ComplianceScheme, v string) { s.name = v }),
	unitofwork.Scalar("nation",
		func(s *ComplianceScheme) string { return s.nation },
		func(s *ComplianceScheme, v string) { s.nation = v }),
	unitofwork.Time("created_at",
		func(s *ComplianceScheme) time.Time { return s.createdAt },
		func(s *ComplianceScheme, v time.Time) { s.createdAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Time("last_updated_on",
		func(s *ComplianceScheme) time.Time { return s.lastUpdatedOn },
		func(s *ComplianceScheme, v time.Time) { s.lastUpdatedOn = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
	unitofwork.Scalar("is_deleted",
		func(s *ComplianceScheme) bool { return s.isDeleted },
		func(s *ComplianceScheme, v bool) { s.isDeleted = v }),
)

func (s *ComplianceScheme) Descriptor() *unitofwork.Descriptor { return descriptor }

func Descriptor() *unitofwork.Descriptor { return descriptor }

type Repository interface {
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*ComplianceScheme, error)
	List(ctx context.Context, nation string) ([]*ComplianceScheme, error)
}
