package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finman/internal/cli"
	"finman/internal/config"
	applog "finman/internal/log"
	"finman/internal/records"
	"finman/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds what PersistentPreRunE resolves before any subcommand runs.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *applog.Logger
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "finman",
		Short:             "Finman - personal finance records",
		Long:              `Finman keeps track of people, spending categories and the money transfers between them in a PostgreSQL database.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the JSON connection file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			// No config needed to print the version.
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "finman %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
		a.checkCmd(),
		a.recreateCmd(),
		a.peopleCmd(),
		a.categoriesCmd(),
		a.transfersCmd(),
		a.reportCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(a.configPath)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg, a.verbose).With(applog.FieldCommand, cmd.CommandPath())
	return nil
}

// withConnection opens the database for one command. An unreachable
// database fails the command; an incorrect schema does not.
func (a *app) withConnection(cmd *cobra.Command, fn func(ctx context.Context, svc *records.Service, conn *storage.Connector) error) error {
	ctx, cancel := cli.CommandContext(cmd.Context(), a.cfg, a.logger)
	defer cancel()

	svc, conn, err := cli.Connect(ctx, a.cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	err = fn(ctx, svc, conn)
	fields := applog.NewFields().WithError(err).ToSlice()
	a.logger.DebugContext(ctx, "Command finished",
		append(fields, applog.FieldDuration, time.Since(start).Milliseconds())...)
	return err
}

// withService is withConnection for data commands, which need the schema to
// be correct.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *records.Service) error) error {
	return a.withConnection(cmd, func(ctx context.Context, svc *records.Service, _ *storage.Connector) error {
		if err := cli.RequireCorrect(svc); err != nil {
			return err
		}
		return fn(ctx, svc)
	})
}
