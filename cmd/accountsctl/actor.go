package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iota-uz/accounts/pkg/audit"
)

type actorFlags struct {
	userID         string
	organisationID string
	serviceID      string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.userID, "as-user", "", "Attribute changes to this user id")
	cmd.PersistentFlags().StringVar(&f.organisationID, "as-organisation", "", "Attribute changes to this organisation id")
	cmd.PersistentFlags().StringVar(&f.serviceID, "as-service", "accountsctl", "Attribute changes to this service when no user or organisation is given")
}

// actor accepts user, user+organisation, organisation or service attribution.
func (f *actorFlags) actor() (audit.Actor, error) {
	parse := func(flag, v string) (*uuid.UUID, error) {
		if v == "" {
			return nil, nil
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", flag, err)
		}
		return &id, nil
	}
	user, err := parse("as-user", f.userID)
	if err != nil {
		return audit.Actor{}, err
	}
	org, err := parse("as-organisation", f.organisationID)
	if err != nil {
		return audit.Actor{}, err
	}
	switch {
	case user != nil && org != nil:
		return audit.UserOrganisationActor(*user, *org), nil
	case user != nil:
		return audit.UserActor(*user), nil
	case org != nil:
		return audit.OrganisationActor(*org), nil
	case f.serviceID != "":
		return audit.ServiceActor(f.serviceID), nil
	default:
		return audit.Actor{}, audit.ErrNoActor
	}
}

func (f *actorFlags) withActor(ctx context.Context) (context.Context, error) {
	a, err := f.actor()
	if err != nil {
		return nil, err
	}
	return audit.WithActor(ctx, a), nil
}
