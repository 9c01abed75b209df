package person

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/unitofwork"
)

const Table = "persons"

var descriptor = unitofwork.NewDescriptor[Person]("Person", Table,
	unitofwork.Scalar("id",
		func(p *Person) int64 { return p.id },
		func(p *Person, v int64) { p.id = v },
		unitofwork.InternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("external_id",
		func(p *Person) uuid.UUID { return p.externalID },
		func(p *Person, v uuid.UUID) { p.externalID = v },
		unitofwork.ExternalID(), unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Scalar("first_name",
		func(p *Person) string { return p.firstName },
		func(p *Person, v string) { p.firstName = v }),
	unitofwork.Scalar("last_name",
		func(p *Person) string { return p.lastName },
		func(p *Person, v string) { p.lastName = v }),
	unitofwork.Scalar("email",
		func(p *Person) string { return p.email },
		func(p *Person, v string) { p.email = v }),
	unitofwork.Nullable("telephone",
		func(p *Person) *string { return p.telephone },
		func(p *Person, v *string) { p.telephone = v }),
	unitofwork.Time("created_at",
		func(p *Person) time.Time { return p.createdAt },
		func(p *Person, v time.Time) { p.createdAt = v },
		unitofwork.Generated(unitofwork.GeneratedOnCreate)),
	unitofwork.Time("last_updated_on",
		func(p *Person) time.Time { return p.lastUpdatedOn },
		func(p *Person, v time.Time) { p.lastUpdatedOn = v },
		unitofwork.Generated(unitofwork.GeneratedOnUpdate)),
	unitofwork.Scalar("is_deleted",
		func(p *Person) bool { return p.isDeleted },
		func(p *Person, v bool) { p.isDeleted = v }),
)

func (p *Person) Descriptor() *unitofwork.Descriptor { return descriptor }

func Descriptor() *unitofwork.Descriptor { return descriptor }
