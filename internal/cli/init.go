// Package cli provides the initialization shared by every finman command:
// environment, configuration, logging and the database connection.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"finman/internal/config"
	applog "finman/internal/log"
	"finman/internal/records"
	"finman/internal/storage"
)

var (
	ErrDatabaseMissing   = errors.New("database unreachable: check the connection settings")
	ErrDatabaseIncorrect = errors.New("database schema is incorrect: run `finman recreate` to rebuild it")
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the connection file at path and validates the
// result.
func LoadAndValidateConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg, tags it with a fresh run
// id and sets it as the default logger. verbose forces debug level.
func SetupLogger(cfg *config.Config, verbose bool) *applog.Logger {
	lc := cfg.LogConfig(applog.ComponentCLI)
	if verbose {
		lc.Level = slog.LevelDebug
	}

	logger := applog.New(lc).With(applog.FieldRunID, uuid.NewString())
	applog.SetDefault(logger)
	return logger
}

// CommandContext returns a context that carries logger, expires after the
// configured command timeout and is cancelled on SIGINT or SIGTERM.
func CommandContext(parent context.Context, cfg *config.Config, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, cfg.CommandTimeout)
	ctx = applog.WithContext(ctx, logger)

	return ctx, func() {
		cancel()
		stop()
	}
}

// Connect opens the connector and wraps it in a record service. An
// unreachable database is an error; an incorrect schema is not, so that the
// caller can still recreate it.
func Connect(ctx context.Context, cfg *config.Config) (*records.Service, *storage.Connector, error) {
	logger := applog.FromContext(ctx)

	conn, state := storage.Open(ctx, cfg.ConnParams())
	params := conn.Params()
	fields := applog.NewFields().
		WithOperation(applog.OpConnect).
		WithDatabase(params.Host, params.Port, params.Database).
		ToSlice()
	logger.DebugContext(ctx, "Connection state", append(fields, applog.FieldState, state.String())...)

	if state == storage.StateMissing {
		return nil, nil, fmt.Errorf("%w (%s:%d/%s)", ErrDatabaseMissing, cfg.Host, cfg.Port, cfg.Database)
	}
	return records.NewService(conn), conn, nil
}

// RequireCorrect fails unless the schema matched at startup or has since
// been recreated.
func RequireCorrect(svc *records.Service) error {
	if svc.State() != storage.StateCorrect {
		return ErrDatabaseIncorrect
	}
	return nil
}
