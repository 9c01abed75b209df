package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/accounts/pkg/constants"
	"github.com/iota-uz/accounts/pkg/serrors"
)

// Actor is who a commit is attributed to. Callers pass one of the combinations built by the
// constructors below; the audit layer stores it as given.
type Actor struct {
	UserID         *uuid.UUID
	OrganisationID *uuid.UUID
	ServiceID      *string
}

func UserActor(userID uuid.UUID) Actor {
	return Actor{UserID: &userID}
}

func UserOrganisationActor(userID, organisationID uuid.UUID) Actor {
	return Actor{UserID: &userID, OrganisationID: &organisationID}
}

func OrganisationActor(organisationID uuid.UUID) Actor {
	return Actor{OrganisationID: &organisationID}
}

func ServiceActor(serviceID string) Actor {
	return Actor{ServiceID: &serviceID}
}

func (a Actor) IsZero() bool {
	return a.UserID == nil && a.OrganisationID == nil && a.ServiceID == nil
}

func (a Actor) String() string {
	switch {
	case a.ServiceID != nil:
		return "service:" + *a.ServiceID
	case a.UserID != nil && a.OrganisationID != nil:
		return "user:" + a.UserID.String() + "@org:" + a.OrganisationID.String()
	case a.UserID != nil:
		return "user:" + a.UserID.String()
	case a.OrganisationID != nil:
		return "org:" + a.OrganisationID.String()
	default:
		return "anonymous"
	}
}

var ErrNoActor = serrors.NewError("AUDIT_NO_ACTOR", "no actor found in context", "")

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

// UseActor returns the actor stored by WithActor. A zero actor counts as missing.
func UseActor(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(constants.ActorKey).(Actor)
	if !ok || actor.IsZero() {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}
