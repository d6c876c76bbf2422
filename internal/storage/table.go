package storage

import (
	"fmt"
	"strconv"
	"time"
)

// Table is a point-in-time copy of a full result set. Rows keep the order the
// engine returned them in.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for the named column.
func (t *Table) Value(row int, column string) (any, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= t.Len() {
		return nil, false
	}
	return t.Rows[row][idx], true
}

// Int returns the cell as an int. NULL and non-numeric cells report false.
func (t *Table) Int(row int, column string) (int, bool) {
	v, ok := t.Value(row, column)
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// Float returns the cell as a float64.
func (t *Table) Float(row int, column string) (float64, bool) {
	v, ok := t.Value(row, column)
	if !ok {
		return 0, false
	}
	return asFloat(v)
}

// String returns the cell formatted for display; NULL becomes "".
func (t *Table) String(row int, column string) string {
	v, ok := t.Value(row, column)
	if !ok {
		return ""
	}
	return FormatCell(v)
}

// FormatCell renders a driver value the way the CLI prints it.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("02-01-2006")
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case int32:
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
