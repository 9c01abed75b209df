package main

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/compliancescheme"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/enrolment"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/organisation"
	"github.com/iota-uz/accounts/modules/accounts/domain/aggregates/person"
	"github.com/iota-uz/accounts/modules/accounts/services"
	"github.com/iota-uz/accounts/pkg/application"
)

type entityView struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
}

// runAudited connects, loads the accounts module and runs fn under the actor from the flags.
func runAudited(cmd *cobra.Command, opts *rootOptions, actor *actorFlags, fn func(ctx context.Context, app application.Application) error) error {
	ctx, err := actor.withActor(cmd.Context())
	if err != nil {
		return err
	}
	return withDB(ctx, opts.conf, func(ctx context.Context, pool *pgxpool.Pool) error {
		app, err := newApplication(pool, opts)
		if err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

func idArg(args []string) (int64, error) {
	return strconv.ParseInt(args[0], 10, 64)
}

func newOrganisationCmd(opts *rootOptions) *cobra.Command {
	actor := &actorFlags{}
	cmd := &cobra.Command{Use: "org", Short: "Manage organisations"}
	actor.register(cmd)

	create := &organisation.CreateDTO{}
	var orgType string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register an organisation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			create.Type = organisation.Type(orgType)
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				o, err := application.MustService[services.OrganisationService](app).Create(ctx, create)
				if err != nil {
					return err
				}
				return writeJSON(cmd, entityView{ID: o.ID(), ExternalID: o.ExternalID().String()})
			})
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Organisation name")
	createCmd.Flags().StringVar(&orgType, "type", string(organisation.TypeCompany), "company, charity, sole_trader or partnership")
	createCmd.Flags().StringVar(&create.CompaniesHouseNo, "companies-house-no", "", "Companies House number")
	createCmd.Flags().StringSliceVar(&create.Nations, "nation", nil, "Nation the organisation operates in (repeatable)")

	rename := &organisation.RenameDTO{}
	renameCmd := &cobra.Command{
		Use:   "rename <id>",
		Short: "Rename an organisation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				_, err := application.MustService[services.OrganisationService](app).Rename(ctx, id, rename)
				return err
			})
		},
	}
	renameCmd.Flags().StringVar(&rename.Name, "name", "", "New name")

	var schemeID int64
	joinCmd := &cobra.Command{
		Use:   "join-scheme <id>",
		Short: "Make an organisation a member of a compliance scheme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				_, err := application.MustService[services.OrganisationService](app).JoinScheme(ctx, id, schemeID)
				return err
			})
		},
	}
	joinCmd.Flags().Int64Var(&schemeID, "scheme", 0, "Compliance scheme id")
	_ = joinCmd.MarkFlagRequired("scheme")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete an organisation and its enrolments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				return application.MustService[services.OrganisationService](app).SoftDelete(ctx, id)
			})
		},
	}

	cmd.AddCommand(createCmd, renameCmd, joinCmd, deleteCmd)
	return cmd
}

func newPersonCmd(opts *rootOptions) *cobra.Command {
	actor := &actorFlags{}
	cmd := &cobra.Command{Use: "person", Short: "Manage persons"}
	actor.register(cmd)

	create := &person.CreateDTO{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a person",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				p, err := application.MustService[services.PersonService](app).Create(ctx, create)
				if err != nil {
					return err
				}
				return writeJSON(cmd, entityView{ID: p.ID(), ExternalID: p.ExternalID().String()})
			})
		},
	}
	createCmd.Flags().StringVar(&create.FirstName, "first-name", "", "First name")
	createCmd.Flags().StringVar(&create.LastName, "last-name", "", "Last name")
	createCmd.Flags().StringVar(&create.Email, "email", "", "Email address")
	createCmd.Flags().StringVar(&create.Telephone, "telephone", "", "Telephone in E.164 form")

	contact := &person.UpdateContactDTO{}
	contactCmd := &cobra.Command{
		Use:   "update-contact <id>",
		Short: "Change a person's email and telephone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				_, err := application.MustService[services.PersonService](app).UpdateContact(ctx, id, contact)
				return err
			})
		},
	}
	contactCmd.Flags().StringVar(&contact.Email, "email", "", "Email address")
	contactCmd.Flags().StringVar(&contact.Telephone, "telephone", "", "Telephone in E.164 form")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft delete a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				return application.MustService[services.PersonService](app).SoftDelete(ctx, id)
			})
		},
	}

	cmd.AddCommand(createCmd, contactCmd, deleteCmd)
	return cmd
}

func newSchemeCmd(opts *rootOptions) *cobra.Command {
	actor := &actorFlags{}
	cmd := &cobra.Command{Use: "scheme", Short: "Manage compliance schemes"}
	actor.register(cmd)

	create := &compliancescheme.CreateDTO{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a compliance scheme",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				s, err := application.MustService[services.ComplianceSchemeService](app).Create(ctx, create)
				if err != nil {
					return err
				}
				return writeJSON(cmd, entityView{ID: s.ID(), ExternalID: s.ExternalID().String()})
			})
		},
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "Scheme name")
	createCmd.Flags().StringVar(&create.Nation, "nation", "", "Nation of the scheme operator")

	cmd.AddCommand(createCmd)
	return cmd
}

func newEnrolCmd(opts *rootOptions) *cobra.Command {
	actor := &actorFlags{}
	cmd := &cobra.Command{Use: "enrolment", Short: "Manage enrolments"}
	actor.register(cmd)

	enrol := &enrolment.EnrolDTO{}
	var role string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Enrol a person in an organisation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enrol.ServiceRole = enrolment.ServiceRole(role)
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				e, err := application.MustService[services.EnrolmentService](app).Enrol(ctx, enrol)
				if err != nil {
					return err
				}
				return writeJSON(cmd, entityView{ID: e.ID(), ExternalID: e.ExternalID().String()})
			})
		},
	}
	createCmd.Flags().Int64Var(&enrol.OrganisationID, "organisation", 0, "Organisation id")
	createCmd.Flags().Int64Var(&enrol.PersonID, "person", 0, "Person id")
	createCmd.Flags().StringVar(&role, "role", string(enrolment.RoleBasicUser), "approved_person, delegated_person or basic_user")

	var status string
	statusCmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Change the status of an enrolment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg(args)
			if err != nil {
				return err
			}
			return runAudited(cmd, opts, actor, func(ctx context.Context, app application.Application) error {
				_, err := application.MustService[services.EnrolmentService](app).ChangeStatus(ctx, id,
					&enrolment.ChangeStatusDTO{Status: enrolment.Status(status)})
				return err
			})
		},
	}
	statusCmd.Flags().StringVar(&status, "status", "", "pending, approved, rejected or removed")
	_ = statusCmd.MarkFlagRequired("status")

	cmd.AddCommand(createCmd, statusCmd)
	return cmd
}
