package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finman/internal/core"
	"finman/internal/records"
)

func (a *app) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transfer categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				table, err := svc.ListCategories(ctx)
				if err != nil {
					return err
				}
				return tableOutput(table).print(cmd.OutOrStdout())
			})
		},
	}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := cleanName(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				id, err := svc.AddCategory(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %d\n", id)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a category together with its transfers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if core.IsSeededCategory(name) {
				return fmt.Errorf("category %q is built in and cannot be removed", name)
			}
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				if err := svc.RemoveCategory(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed category %s\n", name)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}
