package person

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrNotFound   = serrors.NewError("PERSON_NOT_FOUND", "person not found", "Errors.PersonNotFound")
	ErrEmailTaken = serrors.NewError("PERSON_EMAIL_TAKEN", "email is already registered", "Errors.PersonEmailTaken")
)

type Person struct {
	id            int64
	externalID    uuid.UUID
	firstName     string
	lastName      string
	email         string
	telephone     *string
	createdAt     time.Time
	lastUpdatedOn time.Time
	isDeleted     bool
}

func New(firstName, lastName, email string, telephone *string) *Person {
	p := &Person{}
	p.setName(firstName, lastName)
	p.setContact(email, telephone)
	return p
}

func Hydrate(
	id int64,
	externalID uuid.UUID,
	firstName string,
	lastName string,
	email string,
	telephone *string,
	createdAt time.Time,
	lastUpdatedOn time.Time,
	isDeleted bool,
) *Person {
	return &Person{
		id:            id,
		externalID:    externalID,
		firstName:     firstName,
		lastName:      lastName,
		email:         email,
		telephone:     telephone,
		createdAt:     createdAt,
		lastUpdatedOn: lastUpdatedOn,
		isDeleted:     isDeleted,
	}
}

func (p *Person) ID() int64                { return p.id }
func (p *Person) ExternalID() uuid.UUID    { return p.externalID }
func (p *Person) FirstName() string        { return p.firstName }
func (p *Person) LastName() string         { return p.lastName }
func (p *Person) FullName() string         { return strings.TrimSpace(p.firstName + " " + p.lastName) }
func (p *Person) Email() string            { return p.email }
func (p *Person) Telephone() *string       { return p.telephone }
func (p *Person) CreatedAt() time.Time     { return p.createdAt }
func (p *Person) LastUpdatedOn() time.Time { return p.lastUpdatedOn }
func (p *Person) IsDeleted() bool          { return p.isDeleted }

func (p *Person) WithExternalID(id uuid.UUID) *Person {
	p.externalID = id
	return p
}

// UpdateContact replaces email and telephone. An empty telephone clears it.
func (p *Person) UpdateContact(email string, telephone *string) {
	p.setContact(email, telephone)
}

func (p *Person) Rename(firstName, lastName string) {
	p.setName(firstName, lastName)
}

func (p *Person) SoftDelete() {
	p.isDeleted = true
}

func (p *Person) setName(firstName, lastName string) {
	p.firstName = strings.TrimSpace(firstName)
	p.lastName = strings.TrimSpace(lastName)
}

func (p *Person) setContact(email string, telephone *string) {
	p.email = NormalizeEmail(email)
	p.telephone = nil
	if telephone != nil {
		if t := strings.TrimSpace(*telephone); t != "" {
			p.telephone = &t
		}
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
