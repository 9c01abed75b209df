// Package application holds the shared dependencies modules register their services against.
package application

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/accounts/pkg/committer"
)

// Module registers its services with an Application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	DB() *pgxpool.Pool
	Committer() *committer.Committer
	Logger() *logrus.Entry
	RegisterServices(services ...any)
	Service(service any) any
	Modules() []string
}

type ApplicationOptions struct {
	Pool      *pgxpool.Pool
	Committer *committer.Committer
	Logger    *logrus.Entry
}

func New(opts *ApplicationOptions) Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c := opts.Committer
	if c == nil {
		c = committer.New(nil, committer.Options{Logger: logger})
	}
	return &application{
		pool:      opts.Pool,
		committer: c,
		logger:    logger,
		services:  make(map[reflect.Type]any),
	}
}

// Load registers every module in order and stops at the first failure.
func Load(app Application, modules ...Module) error {
	a, ok := app.(*application)
	for _, m := range modules {
		if err := m.Register(app); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
		if ok {
			a.modules = append(a.modules, m.Name())
		}
	}
	return nil
}

type application struct {
	pool      *pgxpool.Pool
	committer *committer.Committer
	logger    *logrus.Entry
	services  map[reflect.Type]any
	modules   []string
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Committer() *committer.Committer {
	return app.committer
}

func (app *application) Logger() *logrus.Entry {
	return app.logger
}

func (app *application) Modules() []string {
	return app.modules
}

// RegisterServices registers services by their pointer element type
func (app *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service registered under the type of service. Pass a typed nil
// pointer, e.g. (*services.PersonService)(nil).
func (app *application) Service(service any) any {
	serviceType := reflect.TypeOf(service).Elem()
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

// MustService is a typed shortcut for Service.
func MustService[T any](app Application) *T {
	return app.Service((*T)(nil)).(*T)
}
