package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"finman/internal/cli"
	"finman/internal/records"
	"finman/internal/storage"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the database is reachable and has the expected schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(ctx context.Context, svc *records.Service, conn *storage.Connector) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "State: %s\n", svc.State())
				if svc.State() == storage.StateCorrect {
					return nil
				}

				mismatches, err := conn.Verify(ctx)
				if err != nil {
					return err
				}
				for _, m := range mismatches {
					fmt.Fprintf(out, "  %s\n", m)
				}
				return cli.ErrDatabaseIncorrect
			})
		},
	}
}

func (a *app) recreateCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Drop everything in the database and create the expected schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(ctx context.Context, svc *records.Service, _ *storage.Connector) error {
				if svc.State() == storage.StateCorrect && !yes {
					return errors.New("the schema is already correct and recreating it deletes every record: pass --yes to confirm")
				}
				if err := svc.CreateTables(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema recreated. State: %s\n", svc.State())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm recreating a correct schema")
	return cmd
}
