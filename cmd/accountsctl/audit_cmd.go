package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/accounts/pkg/audit"
	"github.com/iota-uz/accounts/pkg/outbox"
)

type recordView struct {
	ID int64 `json:"id"`
	outbox.AuditEvent
	Patch jsondiff.Patch `json:"patch,omitempty"`
}

func viewOf(r audit.Record) recordView {
	return recordView{ID: r.ID, AuditEvent: outbox.NewAuditEvent(r)}
}

func viewsOf(records []audit.Record) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		out[i] = viewOf(r)
	}
	return out
}

func newAuditCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and check the audit log",
	}
	cmd.AddCommand(newAuditHistoryCmd(opts))
	cmd.AddCommand(newAuditShowCmd(opts))
	cmd.AddCommand(newAuditCorrelationCmd(opts))
	cmd.AddCommand(newAuditVerifyCmd(opts))
	return cmd
}

func newAuditHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		entity     string
		internalID int64
		externalID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the audit history of one entity, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref := audit.EntityRef{EntityType: entity}
			if internalID > 0 {
				ref.InternalID = &internalID
			}
			if externalID != "" {
				id, err := uuid.Parse(externalID)
				if err != nil {
					return fmt.Errorf("invalid --external-id: %w", err)
				}
				ref.ExternalID = &id
			}
			return withDB(cmd.Context(), opts.conf, func(ctx context.Context, _ *pgxpool.Pool) error {
				records, err := audit.NewStore().ListByEntity(ctx, ref)
				if err != nil {
					return err
				}
				return writeJSON(cmd, viewsOf(records))
			})
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "Entity type, e.g. Organisation (required)")
	cmd.Flags().Int64Var(&internalID, "id", 0, "Internal id")
	cmd.Flags().StringVar(&externalID, "external-id", "", "External id (UUID)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.MarkFlagsOneRequired("id", "external-id")
	return cmd
}

func newAuditShowCmd(opts *rootOptions) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print one audit record with the JSON patch from its old to its new values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts.conf, func(ctx context.Context, _ *pgxpool.Pool) error {
				r, err := audit.NewStore().Get(ctx, id)
				if err != nil {
					return err
				}
				patch, err := r.Patch()
				if err != nil {
					return err
				}
				view := viewOf(r)
				view.Patch = patch
				return writeJSON(cmd, view)
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Audit record id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newAuditCorrelationCmd(opts *rootOptions) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "correlation",
		Short: "Print every audit record written by the same commit as the given record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts.conf, func(ctx context.Context, _ *pgxpool.Pool) error {
				store := audit.NewStore()
				r, err := store.Get(ctx, id)
				if err != nil {
					return err
				}
				records, err := store.ListByCorrelation(ctx, r.Actor(), r.Timestamp)
				if err != nil {
					return err
				}
				return writeJSON(cmd, viewsOf(records))
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Audit record id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

type verifyReport struct {
	Checked  int              `json:"checked"`
	Failures map[int64]string `json:"failures,omitempty"`
}

func newAuditVerifyCmd(opts *rootOptions) *cobra.Command {
	var (
		after    int64
		pageSize int
		ignore   []string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every record's new values follow from its old values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts.conf, func(ctx context.Context, _ *pgxpool.Pool) error {
				report, err := verifyLog(ctx, audit.NewStore(), after, pageSize, ignore)
				if err != nil {
					return err
				}
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				if len(report.Failures) > 0 {
					return fmt.Errorf("%d of %d audit records failed verification", len(report.Failures), report.Checked)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&after, "after", 0, "Start after this record id")
	cmd.Flags().IntVar(&pageSize, "page-size", 500, "Records read per query")
	cmd.Flags().StringSliceVar(&ignore, "ignore", []string{"last_updated_on"}, "Store-recomputed fields left out of the changed-field check")
	return cmd
}

func verifyLog(ctx context.Context, store *audit.Store, after int64, pageSize int, ignore []string) (verifyReport, error) {
	report := verifyReport{Failures: map[int64]string{}}
	if pageSize <= 0 {
		pageSize = 500
	}
	for {
		page, err := store.ListAfter(ctx, after, pageSize)
		if err != nil {
			return report, err
		}
		for _, r := range page {
			report.Checked++
			if err := r.Verify(ignore...); err != nil {
				report.Failures[r.ID] = err.Error()
			}
			after = r.ID
		}
		if len(page) < pageSize {
			return report, nil
		}
	}
}
