package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"finman/internal/core"
	"finman/internal/records"
)

func (a *app) transfersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Manage transfers",
	}
	cmd.AddCommand(a.transfersListCmd(), a.transfersAddCmd(), a.transfersRmCmd(), a.transfersSendCmd())
	return cmd
}

type listFlags struct {
	person   string
	category string
	from     string
	to       string
	csvPath  string
}

func (f listFlags) filtered() bool {
	return f.person != "" || f.category != "" || f.from != "" || f.to != ""
}

// filter resolves the flags into a TransferFilter. A period needs both
// bounds.
func (f listFlags) filter(ctx context.Context, svc *records.Service) (records.TransferFilter, error) {
	var filter records.TransferFilter

	if f.person != "" {
		id, err := resolvePerson(ctx, svc, f.person)
		if err != nil {
			return filter, err
		}
		filter = filter.ByPerson(id)
	}
	if f.category != "" {
		c, err := resolveCategory(ctx, svc, f.category)
		if err != nil {
			return filter, err
		}
		filter = filter.ByCategory(c.ID)
	}

	if (f.from == "") != (f.to == "") {
		return filter, errors.New("--from and --to must be given together")
	}
	if f.from != "" {
		from, err := parseDateFlag("from", f.from)
		if err != nil {
			return filter, err
		}
		to, err := parseDateFlag("to", f.to)
		if err != nil {
			return filter, err
		}
		if err := core.ValidateRange(from, to); err != nil {
			return filter, err
		}
		filter = filter.ByPeriod(from, to)
	}
	return filter, nil
}

func (a *app) transfersListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transfers, optionally filtered by person, category and period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				if !flags.filtered() {
					table, err := svc.ListTransfers(ctx)
					if err != nil {
						return err
					}
					return tableOutput(table).emit(cmd, flags.csvPath)
				}

				filter, err := flags.filter(ctx, svc)
				if err != nil {
					return err
				}
				table, err := svc.FindTransfers(ctx, filter)
				if err != nil {
					return err
				}
				return tableOutput(table).emit(cmd, flags.csvPath)
			})
		},
	}

	cmd.Flags().StringVar(&flags.person, "person", "", "Person id or name")
	cmd.Flags().StringVar(&flags.category, "category", "", "Category id or name")
	cmd.Flags().StringVar(&flags.from, "from", "", "First day of the period (DD-MM-YYYY)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Last day of the period (DD-MM-YYYY)")
	cmd.Flags().StringVar(&flags.csvPath, "csv", "", "Export to a CSV file instead of printing")
	return cmd
}

func (a *app) transfersAddCmd() *cobra.Command {
	var person, category, description, amount, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transfer; negative amounts leave the person, positive ones reach them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := core.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			day, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}
			transfer := core.Transfer{Description: description, Amount: value, Date: day}
			if err := transfer.Validate(); err != nil {
				return err
			}

			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				personID, err := resolvePerson(ctx, svc, person)
				if err != nil {
					return err
				}
				transfer.PersonID = personID
				c, err := resolveCategory(ctx, svc, category)
				if err != nil {
					return err
				}
				if err := bookableCategory(c); err != nil {
					return err
				}
				transfer.CategoryID = c.ID

				id, err := svc.AddTransfer(ctx, records.NewTransfer{
					PersonID:    transfer.PersonID,
					CategoryID:  transfer.CategoryID,
					Description: transfer.Description,
					Amount:      transfer.Amount,
					Date:        transfer.Date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added transfer %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&person, "person", "", "Person id or name")
	cmd.Flags().StringVar(&category, "category", core.CategoryOneOff, "Category id or name")
	cmd.Flags().StringVar(&description, "description", "", "What the transfer was for")
	cmd.Flags().StringVar(&amount, "amount", "", "Signed amount, e.g. -12.50 or 12,50")
	cmd.Flags().StringVar(&date, "date", "", "Day of the transfer (DD-MM-YYYY, default today)")
	cmd.MarkFlagRequired("person")
	cmd.MarkFlagRequired("description")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) transfersRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Remove transfers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				if err := svc.RemoveTransfers(ctx, ids); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d transfers\n", len(ids))
				return nil
			})
		},
	}
}

func (a *app) transfersSendCmd() *cobra.Command {
	var from, to, amount, date string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Move money from one person to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := core.PositiveAmount(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			day, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}

			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				fromID, err := resolvePerson(ctx, svc, from)
				if err != nil {
					return err
				}
				toID, err := resolvePerson(ctx, svc, to)
				if err != nil {
					return err
				}

				pair, err := svc.AddPersonTransfer(ctx, fromID, toID, value, day)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added transfers %d and %d\n", pair.OutgoingID, pair.IncomingID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Sender id or name")
	cmd.Flags().StringVar(&to, "to", "", "Receiver id or name")
	cmd.Flags().StringVar(&amount, "amount", "", "Positive amount to move")
	cmd.Flags().StringVar(&date, "date", "", "Day of the transfer (DD-MM-YYYY, default today)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")
	return cmd
}
