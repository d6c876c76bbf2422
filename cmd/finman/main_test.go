package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finman/internal/cli"
	"finman/internal/core"
	"finman/internal/records"
	"finman/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionNeedsNoConfig(t *testing.T) {
	out, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "finman dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMissingConfigFails(t *testing.T) {
	_, err := execute(t, "people", "list", "--config", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing connection file")
	}
}

func TestUnreachableDatabaseIsFatal(t *testing.T) {
	for _, key := range []string{"FINMAN_DB_HOST", "FINMAN_DB_PORT", "FINMAN_LOG_FILE"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "conn.json")
	conf := `{"host":"127.0.0.1","port":1,"database":"none","username":"none","password":""}`
	if err := os.WriteFile(path, []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "check", "--config", path)
	if !errors.Is(err, cli.ErrDatabaseMissing) {
		t.Fatalf("expected ErrDatabaseMissing, got %v", err)
	}
}

func TestPrintTable(t *testing.T) {
	table := &storage.Table{
		Columns: []string{"person_id", "person_name", "total"},
		Rows:    [][]any{{int64(1), "Anna", 9.75}, {int64(12), "Boris", nil}},
	}

	var out bytes.Buffer
	if err := tableOutput(table).print(&out); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "PERSON_ID") || !strings.Contains(lines[0], "TOTAL") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "9.75") {
		t.Errorf("amount should be formatted, got %q", lines[1])
	}
	if strings.Index(lines[1], "Anna") != strings.Index(lines[2], "Boris") {
		t.Errorf("columns should be aligned:\n%s", out.String())
	}
}

func TestWriteCSV(t *testing.T) {
	table := &storage.Table{
		Columns: []string{"category_name", "total"},
		Rows:    [][]any{{"Food, drinks", -12.5}, {"Rent", -500.0}},
	}

	var out bytes.Buffer
	if err := tableOutput(table).writeCSV(&out); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	want := "category_name,total\n\"Food, drinks\",-12.5\nRent,-500\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "1", "2"})
	if err != nil {
		t.Fatalf("parseIDs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[2] != 2 {
		t.Errorf("ids should keep their order, got %v", ids)
	}

	for _, bad := range []string{"x", "0", "-4"} {
		if _, err := parseIDs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestListFlagsPeriod(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		flags   listFlags
		wantErr bool
	}{
		{"only from", listFlags{from: "01-03-2024"}, true},
		{"only to", listFlags{to: "01-03-2024"}, true},
		{"reversed", listFlags{from: "02-03-2024", to: "01-03-2024"}, true},
		{"bad date", listFlags{from: "2024/03/01", to: "01-03-2024"}, true},
		{"valid", listFlags{from: "01-03-2024", to: "2024-03-31"}, false},
		{"person id", listFlags{person: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flags.filter(ctx, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("filter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && f.IsEmpty() {
				t.Error("filter should not be empty")
			}
		})
	}
}

func TestWriteCSVKeepsPrecision(t *testing.T) {
	table := &storage.Table{
		Columns: []string{"description", "amount"},
		Rows:    [][]any{{"Split bill", 0.126}, {"Refund", 1e-3}},
	}

	var out bytes.Buffer
	if err := tableOutput(table).writeCSV(&out); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	want := "description,amount\nSplit bill,0.126\nRefund,0.001\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := tableOutput(table).print(&out); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if !strings.Contains(out.String(), "0.13") {
		t.Errorf("printed amounts should be rounded, got %q", out.String())
	}
}

func TestTotalsOutput(t *testing.T) {
	o := totalsOutput([]core.CategoryAmount{
		{Name: "Food", Amount: -12.5},
		{Name: "Salary", Amount: 1000.25},
	})

	if len(o.export) != 2 || o.export[0][1] != "-12.5" || o.export[1][1] != "1000.25" {
		t.Errorf("unexpected export rows %v", o.export)
	}
	if len(o.display) != 3 {
		t.Fatalf("expected two categories and a sum line, got %v", o.display)
	}
	if got := o.display[2][1]; got != "987.75" {
		t.Errorf("sum line = %q", got)
	}
}

func TestCleanName(t *testing.T) {
	name, err := cleanName("  Anna \t")
	if err != nil {
		t.Fatalf("cleanName failed: %v", err)
	}
	if name != "Anna" {
		t.Errorf("got %q, want %q", name, "Anna")
	}

	if _, err := cleanName("   "); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestLookupCategory(t *testing.T) {
	categories := []core.Category{
		{ID: 1, Name: core.CategoryInterPerson},
		{ID: 2, Name: core.CategoryOneOff},
		{ID: 3, Name: "Rent"},
	}

	tests := []struct {
		ref    string
		wantID int
	}{
		{"3", 3},
		{"Rent", 3},
		{"rent", 3},
		{core.CategoryOneOff, 2},
	}
	for _, tt := range tests {
		c, err := lookupCategory(categories, tt.ref)
		if err != nil {
			t.Errorf("lookupCategory(%q) failed: %v", tt.ref, err)
			continue
		}
		if c.ID != tt.wantID {
			t.Errorf("lookupCategory(%q) = %d, want %d", tt.ref, c.ID, tt.wantID)
		}
	}

	for _, ref := range []string{"9", "Food"} {
		if _, err := lookupCategory(categories, ref); !errors.Is(err, records.ErrCategoryNotFound) {
			t.Errorf("lookupCategory(%q): expected ErrCategoryNotFound, got %v", ref, err)
		}
	}
}

func TestBookableCategory(t *testing.T) {
	if err := bookableCategory(core.Category{ID: 1, Name: core.CategoryInterPerson}); err == nil {
		t.Error("the inter-person category should be rejected")
	}
	if err := bookableCategory(core.Category{ID: 2, Name: core.CategoryOneOff}); err != nil {
		t.Errorf("one-off category should be accepted, got %v", err)
	}
}
