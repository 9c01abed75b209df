package organisation

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/unitofwork"
)

const Table = "organisations"

var descriptor = unitofwork.NewDescriptor[Organisation]("Organisation", Table,
	unitofwork.Scalar("id",
		func(o *Organisation) int64 { return o.id },
		func(o *Organisation, v int64) { o.id = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("external_id",
		func(o *Organisation) uuid.UUID { return o.externalID },
		func(o *Organisation, v uuid.UUID) { o.externalID = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("name",
		func(o *Organisation) string { return o.name },
		func(o *Organisation, v string) { o.name = v }),
	unitofwork.Scalar("organisation_type",
		func(o *Organisation) Type { return o.organisationType },
		func(o *Organisation, v Type) { o.organisationType = v }),
	unitofwork.Nullable("companies_house_no",
		func(o *Organisation) *string { return o.companiesHouseNo },
		func(o *Organisation, v *string) { o.companiesHouseNo = v }),
	unitofwork.Nullable("compliance_scheme_id",
		func(o *Organisation) *int64 { return o.complianceSchemeID },
		func(o *Organisation, v *int64) { o.complianceSchemeID = v }),
	unitofwork.Slice("nations",
		func(o *Organisation) []string { return o.nations },
		func(o *Organisation, v []string) { o.nations = v }),
	unitofwork.Time("created_at",
		func(o *Organisation) time.Time { return o.createdAt },
		func(o *Organisation, v time.Time) { o.createdAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Time("last_updated_on",
		func(o *Organisation) time.Time { return o.lastUpdatedOn },
		func(o *Organisation, v time.Time) { o.lastUpdatedOn = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
	unitofwork.Scalar("is_deleted",
		func(o *Organisation) bool { return o.isDeleted },
		func(o *Organisation, v bool) { o.isDeleted = v }),
)

func (o *Organisation) Descriptor() *unitofwork.Descriptor { return descriptor }

func Descriptor() *unitofwork.Descriptor { return descriptor }
