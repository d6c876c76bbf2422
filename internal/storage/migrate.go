package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	applog "finman/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var resetStatements = []string{
	"DROP SCHEMA IF EXISTS public CASCADE",
	"CREATE SCHEMA public",
}

// CreateTables destroys the public schema with everything in it and builds
// the expected one from scratch, seeding the two fixed categories. A failure
// part way leaves the database in an undefined state; the connector state is
// only set to correct once every step has succeeded.
func (c *Connector) CreateTables(ctx context.Context) error {
	logger := applog.ComponentFromContext(ctx, applog.ComponentSchema)

	// m.Close closes db as well; the deferred Close covers the early returns
	// before the migrate instance exists.
	db, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range resetStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset schema: %w", err)
		}
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, c.params.Database, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	c.state = StateCorrect
	logger.InfoContext(ctx, "Schema recreated",
		applog.FieldOperation, applog.OpRecreate,
		applog.FieldDatabase, c.params.Database)
	return nil
}
