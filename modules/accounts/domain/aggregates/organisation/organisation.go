package organisation

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrNotFound              = serrors.NewError("ORGANISATION_NOT_FOUND", "organisation not found", "Errors.OrganisationNotFound")
	ErrCompaniesHouseNoTaken = serrors.NewError("ORGANISATION_COMPANIES_HOUSE_NO_TAKEN", "companies house number is already registered", "Errors.CompaniesHouseNoTaken")
	ErrDeleted               = serrors.NewError("ORGANISATION_DELETED", "organisation is deleted", "Errors.OrganisationDeleted")
)

type Type string

const (
	TypeCompany     Type = "company"
	TypeCharity     Type = "charity"
	TypeSoleTrader  Type = "sole_trader"
	TypePartnership Type = "partnership"
)

// Organisation is a producer or compliance scheme operator registered with the service.
type Organisation struct {
	id                 int64
	externalID         uuid.UUID
	name               string
	organisationType   Type
	companiesHouseNo   *string
	complianceSchemeID *int64
	nations            []string
	createdAt          time.Time
	lastUpdatedOn      time.Time
	isDeleted          bool
}

func New(name string, organisationType Type, companiesHouseNo *string, nations []string) *Organisation {
	return &Organisation{
		name:             strings.TrimSpace(name),
		organisationType: organisationType,
		companiesHouseNo: normalizeNumber(companiesHouseNo),
		nations:          normalizeNations(nations),
	}
}

func Hydrate(
	id int64,
	externalID uuid.UUID,
	name string,
	organisationType Type,
	companiesHouseNo *string,
	complianceSchemeID *int64,
	nations []string,
	createdAt time.Time,
	lastUpdatedOn time.Time,
	isDeleted bool,
) *Organisation {
	return &Organisation{
		id:                 id,
		externalID:         externalID,
		name:               name,
		organisationType:   organisationType,
		companiesHouseNo:   companiesHouseNo,
		complianceSchemeID: complianceSchemeID,
		nations:            nations,
		createdAt:          createdAt,
		lastUpdatedOn:      lastUpdatedOn,
		isDeleted:          isDeleted,
	}
}

func (o *Organisation) ID() int64                  { return o.id }
func (o *Organisation) ExternalID() uuid.UUID      { return o.externalID }
func (o *Organisation) Name() string               { return o.name }
func (o *Organisation) Type() Type                 { return o.organisationType }
func (o *Organisation) CompaniesHouseNo() *string  { return o.companiesHouseNo }
func (o *Organisation) ComplianceSchemeID() *int64 { return o.complianceSchemeID }
func (o *Organisation) Nations() []string          { return slices.Clone(o.nations) }
func (o *Organisation) CreatedAt() time.Time       { return o.createdAt }
func (o *Organisation) LastUpdatedOn() time.Time   { return o.lastUpdatedOn }
func (o *Organisation) IsDeleted() bool            { return o.isDeleted }

// WithExternalID pins the external id instead of letting the store generate one.
func (o *Organisation) WithExternalID(id uuid.UUID) *Organisation {
	o.externalID = id
	return o
}

func (o *Organisation) Rename(name string) {
	o.name = strings.TrimSpace(name)
}

func (o *Organisation) JoinScheme(schemeID int64) {
	o.complianceSchemeID = &schemeID
}

func (o *Organisation) LeaveScheme() {
	o.complianceSchemeID = nil
}

func (o *Organisation) SetNations(nations []string) {
	o.nations = normalizeNations(nations)
}

func (o *Organisation) SoftDelete() {
	o.isDeleted = true
}

func normalizeNumber(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToUpper(strings.TrimSpace(*v))
	if s == "" {
		return nil
	}
	return &s
}

func normalizeNations(nations []string) []string {
	out := make([]string, 0, len(nations))
	for _, n := range nations {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}
