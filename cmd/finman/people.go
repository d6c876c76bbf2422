package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finman/internal/core"
	"finman/internal/records"
)

func (a *app) peopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "Manage people",
	}

	var csvPath string
	list := &cobra.Command{
		Use:   "list",
		Short: "List people with the sum of their transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				table, err := svc.ListPeople(ctx)
				if err != nil {
					return err
				}
				return tableOutput(table).emit(cmd, csvPath)
			})
		},
	}
	list.Flags().StringVar(&csvPath, "csv", "", "Export to a CSV file instead of printing")

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := cleanName(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				id, err := svc.AddPerson(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added person %d\n", id)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm ID...",
		Short: "Remove people together with their transfers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				if err := svc.RemovePeople(ctx, ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d people\n", len(ids))
				return nil
			})
		},
	}

	balance := &cobra.Command{
		Use:   "balance PERSON",
		Short: "Show the sum of a person's transfers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				id, err := resolvePerson(ctx, svc, args[0])
				if err != nil {
					return err
				}
				total, err := svc.PersonBalance(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), core.FormatAmount(total))
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm, balance)
	return cmd
}
