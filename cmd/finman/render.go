package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finman/internal/storage"
)

// output is a result ready to print or export. Display cells are rounded for
// reading; export cells keep full precision.
type output struct {
	header  []string
	display [][]string
	export  [][]string
}

func tableOutput(t *storage.Table) output {
	return output{
		header:  t.Columns,
		display: cells(t, storage.FormatCell),
		export:  cells(t, exportCell),
	}
}

func cells(t *storage.Table, format func(any) string) [][]string {
	rows := make([][]string, t.Len())
	for i := range rows {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = format(t.Rows[i][j])
		}
		rows[i] = row
	}
	return rows
}

// exportCell writes floats with the shortest exact representation.
func exportCell(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return storage.FormatCell(v)
}

// print renders the display cells as aligned columns with an upper-case
// header.
func (o output) print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(o.header))
	for i, c := range o.header {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range o.display {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// writeCSV writes the export cells with a header line.
func (o output) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(o.header); err != nil {
		return err
	}
	if err := cw.WriteAll(o.export); err != nil {
		return err
	}
	return cw.Error()
}

// emit prints o, or exports it to csvPath when one is given.
func (o output) emit(cmd *cobra.Command, csvPath string) error {
	if csvPath == "" {
		return o.print(cmd.OutOrStdout())
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := o.writeCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(o.export), csvPath)
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q: must be a positive number", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
