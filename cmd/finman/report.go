package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"finman/internal/core"
	"finman/internal/records"
)

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregated reports",
	}

	var csvPath string
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Sum of transfer amounts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *records.Service) error {
				table, err := svc.CategoryTotals(ctx)
				if err != nil {
					return err
				}
				return totalsOutput(records.DecodeCategoryTotals(table)).emit(cmd, csvPath)
			})
		},
	}
	categories.Flags().StringVar(&csvPath, "csv", "", "Export to a CSV file instead of printing")

	cmd.AddCommand(categories)
	return cmd
}

// totalsOutput lists one line per category. The printed form ends with the
// overall sum; the export has only the category lines.
func totalsOutput(totals []core.CategoryAmount) output {
	o := output{header: []string{"category_name", "total"}}

	var sum float64
	for _, t := range totals {
		sum += t.Amount
		o.display = append(o.display, []string{t.Name, core.FormatAmount(t.Amount)})
		o.export = append(o.export, []string{t.Name, strconv.FormatFloat(t.Amount, 'f', -1, 64)})
	}
	o.display = append(o.display, []string{"(all)", core.FormatAmount(sum)})
	return o
}
