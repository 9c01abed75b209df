package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/audit"
)

func TestActorFlags(t *testing.T) {
	t.Parallel()

	user := uuid.New()
	org := uuid.New()
	cases := []struct {
		name  string
		flags actorFlags
		want  audit.Actor
		err   bool
	}{
		{name: "service default", flags: actorFlags{serviceID: "accountsctl"}, want: audit.ServiceActor("accountsctl")},
		{name: "user", flags: actorFlags{userID: user.String(), serviceID: "accountsctl"}, want: audit.UserActor(user)},
		{name: "organisation", flags: actorFlags{organisationID: org.String()}, want: audit.OrganisationActor(org)},
		{name: "user and organisation", flags: actorFlags{userID: user.String(), organisationID: org.String()}, want: audit.UserOrganisationActor(user, org)},
		{name: "bad uuid", flags: actorFlags{userID: "nope"}, err: true},
		{name: "nobody", flags: actorFlags{}, err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.flags.actor()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRootCmd_Commands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "status"},
		{"audit", "history"},
		{"audit", "show"},
		{"audit", "correlation"},
		{"audit", "verify"},
		{"outbox", "relay"},
		{"outbox", "clean"},
		{"org", "create"},
		{"person", "update-contact"},
		{"enrolment", "status"},
		{"scheme", "create"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
	require.True(t, root.SilenceUsage)
	require.True(t, root.SilenceErrors)
}
