package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	applog "finman/internal/log"
)

const driverName = "postgres"

// Connector owns the connection parameters and runs every statement on a
// connection of its own, closed before the call returns.
type Connector struct {
	params ConnParams
	state  State
}

// Open builds a Connector and derives its state. It never fails: incomplete
// params or an unreachable database yield StateMissing, a reachable one with
// the wrong shape yields StateIncorrect. Incomplete params are never dialed.
func Open(ctx context.Context, params ConnParams) (*Connector, State) {
	c := &Connector{params: params}
	logger := applog.ComponentFromContext(ctx, applog.ComponentStorage)
	target := applog.NewFields().WithDatabase(params.Host, params.Port, params.Database).ToSlice()

	db, err := c.open(ctx)
	if err != nil {
		logger.DebugContext(ctx, "Database unreachable", append(target, applog.FieldError, err)...)
		c.state = StateMissing
		return c, c.state
	}
	db.Close()

	ok, err := c.CheckDatabase(ctx)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "Schema check failed", append(target, applog.FieldError, err)...)
		c.state = StateIncorrect
	case !ok:
		c.state = StateIncorrect
	default:
		c.state = StateCorrect
	}

	logger.DebugContext(ctx, "Database connected", append(target, applog.FieldState, c.state.String())...)
	return c, c.state
}

// State returns the state computed at Open or after the last CreateTables.
func (c *Connector) State() State {
	return c.state
}

// Params returns the connection parameters the connector was built with.
func (c *Connector) Params() ConnParams {
	return c.params
}

func (c *Connector) open(ctx context.Context) (*sql.DB, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, c.params.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Exec runs a statement that returns no rows and reports how many rows it
// affected.
func (c *Connector) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	start := time.Now()
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec statement: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	applog.ComponentFromContext(ctx, applog.ComponentStorage).DebugContext(ctx, "Statement executed",
		applog.FieldOperation, applog.OpExec,
		applog.FieldRows, n,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return n, nil
}

// Scalar returns the first column of the first row. ok is false both when no
// row came back and when the cell was NULL.
func (c *Connector) Scalar(ctx context.Context, query string, args ...any) (value any, ok bool, err error) {
	db, err := c.open(ctx)
	if err != nil {
		return nil, false, err
	}
	defer db.Close()

	start := time.Now()
	v, ok, err := scalar(ctx, db, query, args...)
	if err != nil {
		return nil, false, err
	}

	applog.ComponentFromContext(ctx, applog.ComponentStorage).DebugContext(ctx, "Scalar fetched",
		applog.FieldOperation, applog.OpScalar,
		applog.FieldFound, ok,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return v, ok, nil
}

func scalar(ctx context.Context, q queryer, query string, args ...any) (any, bool, error) {
	var v any
	err := q.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query scalar: %w", err)
	}
	if v == nil {
		return nil, false, nil
	}
	return normalize(v), true, nil
}

// FetchTable materializes the full result set keyed by the declared column
// names.
func (c *Connector) FetchTable(ctx context.Context, query string, args ...any) (*Table, error) {
	db, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &Table{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i := range values {
			values[i] = normalize(values[i])
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	applog.ComponentFromContext(ctx, applog.ComponentStorage).DebugContext(ctx, "Table fetched",
		applog.FieldOperation, applog.OpFetch,
		applog.FieldRows, table.Len(),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return table, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// normalize copies driver-owned byte slices into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
