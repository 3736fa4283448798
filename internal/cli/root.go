// Package cli implements the timelog operator command line. Commands work
// directly against the local database.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"timelog/internal/app"
	"timelog/internal/config"
	"timelog/internal/logging"
)

type options struct {
	dbPath        string
	migrationsDir string
}

func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &options{
		dbPath:        cfg.DBPath,
		migrationsDir: cfg.MigrationsDir,
	}

	rootCmd := &cobra.Command{
		Use:   "timelog",
		Short: "Track time against activities with timers and manual entries",
	}
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", opts.dbPath, "Path to the sqlite database")
	rootCmd.PersistentFlags().StringVar(&opts.migrationsDir, "migrations", opts.migrationsDir, "Directory holding migration files")

	rootCmd.AddCommand(
		newActivityCmd(opts),
		newStartCmd(opts),
		newPauseCmd(opts),
		newResumeCmd(opts),
		newStopCmd(opts),
		newStatusCmd(opts),
		newRecoverCmd(opts),
		newDiscardCmd(opts),
		newLogCmd(opts),
		newListCmd(opts),
		newHashPasswordCmd(),
	)
	return rootCmd
}

// Execute runs the root command with ctx and reports a failure on stderr.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		PrintError(root.ErrOrStderr(), err)
		return err
	}
	return nil
}

type runFunc func(cmd *cobra.Command, args []string, a *app.App) error

// withApp opens the database for the duration of one command.
func withApp(opts *options, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		cfg.DBPath = opts.dbPath
		cfg.MigrationsDir = opts.migrationsDir

		// Migration notices are noise on a terminal unless asked for.
		level := "warn"
		if _, ok := os.LookupEnv("LOG_LEVEL"); ok {
			level = cfg.LogLevel
		}
		logger, err := logging.New(cmd.ErrOrStderr(), level, "text")
		if err != nil {
			return err
		}

		a, err := app.Open(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("open timelog: %w", err)
		}
		defer a.Close()

		return fn(cmd, args, a)
	}
}
