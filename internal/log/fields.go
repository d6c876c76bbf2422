package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRunID      = "run_id"
	FieldCommand    = "command"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldHost       = "host"
	FieldPort       = "port"
	FieldDatabase   = "database"
	FieldState      = "state"
	FieldTable      = "table"
	FieldColumn     = "column"
	FieldExpected   = "expected"
	FieldActual     = "actual"
	FieldRows       = "rows"
	FieldPersonID   = "person_id"
	FieldCategoryID = "category_id"
	FieldTransferID = "transfer_id"
	FieldFilter     = "filter"
	FieldFound      = "found"
	FieldMismatches = "mismatches"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentSchema  = "schema"
	ComponentStorage = "storage"
	ComponentRecords = "records"
)

// Operations defines standard operation names
const (
	OpConnect  = "connect"
	OpCheck    = "check"
	OpRecreate = "recreate"
	OpExec     = "exec"
	OpScalar   = "scalar"
	OpFetch    = "fetch"
	OpCreate   = "create"
	OpList     = "list"
	OpDelete   = "delete"
	OpReport   = "report"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithDatabase adds the connection target. The password is never included.
func (f LogFields) WithDatabase(host string, port int, database string) LogFields {
	f[FieldHost] = host
	f[FieldPort] = port
	f[FieldDatabase] = database
	return f
}

// WithColumnMismatch adds the fields describing a failed catalog comparison.
func (f LogFields) WithColumnMismatch(table, column, expected, actual string) LogFields {
	f[FieldTable] = table
	f[FieldColumn] = column
	f[FieldExpected] = expected
	f[FieldActual] = actual
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
