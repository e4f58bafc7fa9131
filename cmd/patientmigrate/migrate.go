package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/exitcode"
	"github.com/healthlab/patientmigrate/internal/logging"
	"github.com/healthlab/patientmigrate/internal/migrate"
	"github.com/healthlab/patientmigrate/internal/model"
	"github.com/healthlab/patientmigrate/internal/source"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy all source rows into the lab5 schema",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&cfg.CreateTables, "create-tables", false, "Create the lab5 tables if they do not exist")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateSource(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return exitcode.Wrap(exitcode.ValidationError, err)
	}
	if err := cfg.ValidateDest(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return exitcode.Wrap(exitcode.ValidationError, err)
	}

	summary, err := migrateWith(ctx, log, openers{
		source: openSource,
		dest: func(ctx context.Context) (destination, error) {
			pool, err := db.NewPool(ctx, cfg.DestDSN())
			if err != nil {
				return nil, err
			}
			return pool, nil
		},
	}, migrate.Options{CreateTables: cfg.CreateTables})
	if err != nil {
		return err
	}

	fmt.Printf("Migration complete: %d patients, %d diagnosis records, %d rows written (%.1fs)\n",
		summary.PatientsRead, summary.RecordsRead, summary.TotalWritten(), summary.DurationTotal.Seconds())
	return nil
}

// destination is the write side of a run; *pgxpool.Pool satisfies it.
type destination interface {
	db.Execer
	Close()
}

type openers struct {
	source func(ctx context.Context, log zerolog.Logger) (source.Store, error)
	dest   func(ctx context.Context) (destination, error)
}

// migrateWith opens both connections, runs the migration and releases both
// connections on every return path. Errors carry their exit code.
func migrateWith(ctx context.Context, log zerolog.Logger, open openers, opts migrate.Options) (*model.MigrationSummary, error) {
	src, err := open.source(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("source connection failed")
		return nil, exitcode.Wrap(exitcode.SourceConnError, err)
	}
	defer closeSource(log, src)

	dst, err := open.dest(ctx)
	if err != nil {
		log.Error().Err(err).Msg("destination connection failed")
		return nil, exitcode.Wrap(exitcode.DestConnError, err)
	}
	defer dst.Close()
	log.Info().Msg("connected to destination Postgres")

	summary, err := migrate.Run(ctx, src, dst, log, opts)
	if err != nil {
		var pe *migrate.PipelineError
		if errors.As(err, &pe) {
			log.Error().
				Err(pe.Err).
				Str("phase", pe.Phase).
				Str("op", pe.Op).
				Str("table", pe.Table).
				Int64("row", pe.Row).
				Str("hint", db.Hint(pe.Err)).
				Msg("migration failed")
			if pe.Op == migrate.OpRead {
				return nil, exitcode.Wrap(exitcode.ReadError, err)
			}
			return nil, exitcode.Wrap(exitcode.WriteError, err)
		}
		log.Error().Err(err).Msg("migration failed")
		return nil, exitcode.Wrap(exitcode.WriteError, err)
	}
	return summary, nil
}
