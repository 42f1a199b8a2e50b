package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hifztracker/internal/config"
	"hifztracker/internal/logbook"
	"hifztracker/internal/logger"
	"hifztracker/internal/roster"
	"hifztracker/internal/store"
)

// app carries the handles shared by subcommands. They are opened in the root
// command's PersistentPreRunE and released in PersistentPostRunE.
type app struct {
	driver  string
	dsn     string
	verbose bool

	log      *logger.Logger
	db       *store.DB
	students *roster.Repository
	logs     *logbook.Repository
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	a := &app{}

	root := &cobra.Command{
		Use:           "hifz",
		Short:         "Record and export daily memorisation progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `hifz keeps the madrassah roster and one memorisation log per student per day.

A day is open until its first batch is submitted; after that it is closed and
further submissions for it are rejected.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			var err error
			if a.log, err = logger.New(cfg.Env, level); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			for _, w := range cfg.Warnings {
				a.log.Warn("config", "warning", w)
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				a.log.Sync()
			}
			return a.db.Close()
		},
	}
	root.PersistentFlags().StringVar(&a.driver, "driver", cfg.DBDriver, "database driver (sqlite3 or pgx)")
	root.PersistentFlags().StringVar(&a.dsn, "db", cfg.DatabaseURL, "database path or URL")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCmd(a),
		newStudentsCmd(a),
		newLogsCmd(a),
		newSurahsCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := store.Open(ctx, a.driver, a.dsn)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return err
	}
	a.db = db
	a.students = roster.NewRepository(db)
	a.logs = logbook.NewRepository(db)
	a.log.Debug("database opened", "driver", a.driver)
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// open already migrated
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	}
}

func newSurahsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "surahs",
		Short: "List the accepted surah names",
		Args:  cobra.NoArgs,
		// no database needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, name := range logbook.Surahs() {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i+1, name)
			}
			return nil
		},
	}
}
