// Package accounts registers the organisation, person, enrolment and compliance scheme services.
package accounts

import (
	"github.com/iota-uz/accounts/modules/accounts/infrastructure/persistence"
	"github.com/iota-uz/accounts/modules/accounts/services"
	"github.com/iota-uz/accounts/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	organisations := persistence.NewOrganisationRepository()
	persons := persistence.NewPersonRepository()
	enrolments := persistence.NewEnrolmentRepository()
	schemes := persistence.NewComplianceSchemeRepository()
	c := app.Committer()

	app.RegisterServices(
		services.NewOrganisationService(organisations, schemes, enrolments, c),
		services.NewPersonService(persons, c),
		services.NewEnrolmentService(enrolments, organisations, persons, c),
		services.NewComplianceSchemeService(schemes, c),
	)
	return nil
}

func (m *Module) Name() string {
	return "accounts"
}
