package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	applog "finman/internal/log"
)

// ColumnShape is the catalog description a column must match exactly.
type ColumnShape struct {
	Table    string
	Column   string
	DataType string
	Identity bool
	Nullable bool
}

func (s ColumnShape) describe() string {
	return fmt.Sprintf("%s identity=%s nullable=%s", s.DataType, yesNo(s.Identity), yesNo(s.Nullable))
}

// RequiredTables lists the tables that must exist in the current schema.
var RequiredTables = []string{"person", "category", "transfer"}

// RequiredColumns is the full expected shape. Any drift in type, identity
// generation or nullability makes the schema incorrect.
var RequiredColumns = []ColumnShape{
	{Table: "person", Column: "person_id", DataType: "integer", Identity: true},
	{Table: "person", Column: "person_name", DataType: "character varying"},
	{Table: "category", Column: "category_id", DataType: "integer", Identity: true},
	{Table: "category", Column: "category_name", DataType: "character varying"},
	{Table: "transfer", Column: "transfer_id", DataType: "integer", Identity: true},
	{Table: "transfer", Column: "person_id", DataType: "integer"},
	{Table: "transfer", Column: "category_id", DataType: "integer"},
	{Table: "transfer", Column: "description", DataType: "character varying"},
	{Table: "transfer", Column: "amount", DataType: "double precision"},
	{Table: "transfer", Column: "done_at", DataType: "date"},
}

// Mismatch describes one way the live schema differs from the expected one.
// Column is empty when the whole table is missing; Actual is empty when the
// column is missing.
type Mismatch struct {
	Table    string
	Column   string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	switch {
	case m.Column == "":
		return fmt.Sprintf("table %s is missing", m.Table)
	case m.Actual == "":
		return fmt.Sprintf("column %s.%s is missing (want %s)", m.Table, m.Column, m.Expected)
	default:
		return fmt.Sprintf("column %s.%s is %s (want %s)", m.Table, m.Column, m.Actual, m.Expected)
	}
}

const (
	tableExistsQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`

	columnShapeQuery = `
		SELECT data_type, is_identity, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
)

// CheckDatabase reports whether every required table exists and every
// required column matches its expected shape.
func (c *Connector) CheckDatabase(ctx context.Context) (bool, error) {
	mismatches, err := c.Verify(ctx)
	if err != nil {
		return false, err
	}
	return len(mismatches) == 0, nil
}

// Verify compares the live catalog with the expected shape and returns every
// difference found. Columns of a missing table are not reported separately.
func (c *Connector) Verify(ctx context.Context) ([]Mismatch, error) {
	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	logger := applog.ComponentFromContext(ctx, applog.ComponentSchema)

	var mismatches []Mismatch
	missing := make(map[string]bool)
	for _, table := range RequiredTables {
		_, ok, err := scalar(ctx, db, tableExistsQuery, table)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", table, err)
		}
		if !ok {
			missing[table] = true
			mismatches = append(mismatches, Mismatch{Table: table})
			logger.DebugContext(ctx, "Table missing", applog.FieldTable, table)
		}
	}

	for _, want := range RequiredColumns {
		if missing[want.Table] {
			continue
		}
		actual, found, err := columnShape(ctx, db, want.Table, want.Column)
		if err != nil {
			return nil, fmt.Errorf("check column %s.%s: %w", want.Table, want.Column, err)
		}
		if found && actual == want {
			continue
		}

		m := Mismatch{Table: want.Table, Column: want.Column, Expected: want.describe()}
		if found {
			m.Actual = actual.describe()
		}
		mismatches = append(mismatches, m)
		logger.DebugContext(ctx, "Column mismatch",
			applog.NewFields().WithColumnMismatch(m.Table, m.Column, m.Expected, m.Actual).ToSlice()...)
	}

	logger.DebugContext(ctx, "Schema checked",
		applog.FieldOperation, applog.OpCheck,
		applog.FieldMismatches, len(mismatches))
	return mismatches, nil
}

func columnShape(ctx context.Context, db *sql.DB, table, column string) (ColumnShape, bool, error) {
	var dataType, isIdentity, isNullable string
	err := db.QueryRowContext(ctx, columnShapeQuery, table, column).Scan(&dataType, &isIdentity, &isNullable)
	if errors.Is(err, sql.ErrNoRows) {
		return ColumnShape{}, false, nil
	}
	if err != nil {
		return ColumnShape{}, false, err
	}

	return ColumnShape{
		Table:    table,
		Column:   column,
		DataType: dataType,
		Identity: isIdentity == "YES",
		Nullable: isNullable == "YES",
	}, true, nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
