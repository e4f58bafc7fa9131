package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/healthlab/patientmigrate/internal/config"
	"github.com/healthlab/patientmigrate/internal/exitcode"
	"github.com/healthlab/patientmigrate/internal/source"
)

var (
	cfg     config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "patientmigrate",
	Short: "MySQL patient records → Postgres lab5 loader",
	Long: `Copies the patient and diabetes diagnosis tables from a MySQL database into
the denormalized lab5 schema of a Postgres database. Each diagnosis record is
split across lab5.rc_checkup, lab5.rc_labtest and lab5.rc_precords.

The load is append-only and not idempotent: run it against an empty lab5 schema.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: resolveConfig,
}

// envBindings maps flags to the environment variables that can supply them.
var envBindings = map[string]string{
	"source-dsn":      "SOURCE_DB_DSN",
	"source-host":     "SOURCE_DB_HOST",
	"source-port":     "SOURCE_DB_PORT",
	"source-user":     "SOURCE_DB_USER",
	"source-password": "SOURCE_DB_PASSWORD",
	"source-db":       "SOURCE_DB_NAME",
	"source-snapshot": "SOURCE_SNAPSHOT_DIR",
	"dest-dsn":        "DEST_DB_DSN",
	"dest-host":       "DEST_DB_HOST",
	"dest-port":       "DEST_DB_PORT",
	"dest-user":       "DEST_DB_USER",
	"dest-password":   "DEST_DB_PASSWORD",
	"dest-db":         "DEST_DB_NAME",
	"log-format":      "PATIENTMIGRATE_LOG_FORMAT",
	"log-level":       "PATIENTMIGRATE_LOG_LEVEL",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file (or set PATIENTMIGRATE_CONFIG)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	pf.StringVar(&cfg.Source.DSN, "source-dsn", "", "MySQL DSN, overrides the other --source-* connection flags")
	pf.StringVar(&cfg.Source.Host, "source-host", config.DefaultHost, "MySQL host")
	pf.IntVar(&cfg.Source.Port, "source-port", config.DefaultSourcePort, "MySQL port")
	pf.StringVar(&cfg.Source.User, "source-user", "", "MySQL user")
	pf.StringVar(&cfg.Source.Password, "source-password", "", "MySQL password")
	pf.StringVar(&cfg.Source.Database, "source-db", "", "MySQL database name")
	pf.StringVar(&cfg.SnapshotDir, "source-snapshot", "", "Read the source from a Parquet snapshot directory instead of MySQL")

	pf.StringVar(&cfg.Dest.DSN, "dest-dsn", "", "Postgres connection string, overrides the other --dest-* connection flags")
	pf.StringVar(&cfg.Dest.Host, "dest-host", config.DefaultHost, "Postgres host")
	pf.IntVar(&cfg.Dest.Port, "dest-port", config.DefaultDestPort, "Postgres port")
	pf.StringVar(&cfg.Dest.User, "dest-user", "", "Postgres user")
	pf.StringVar(&cfg.Dest.Password, "dest-password", "", "Postgres password")
	pf.StringVar(&cfg.Dest.Database, "dest-db", "", "Postgres database name")
}

// resolveConfig layers settings as flag > environment > config file > default.
func resolveConfig(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	explicit := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) { explicit[f.Name] = true })

	if cfgFile == "" {
		cfgFile = os.Getenv("PATIENTMIGRATE_CONFIG")
	}
	if cfgFile != "" {
		if err := cfg.LoadFromFile(cfgFile, func(name string) bool { return explicit[name] }); err != nil {
			return exitcode.Wrap(exitcode.UsageError, err)
		}
	}

	for name, env := range envBindings {
		if explicit[name] || flags.Lookup(name) == nil {
			continue
		}
		if v, ok := os.LookupEnv(env); ok {
			if err := flags.Set(name, v); err != nil {
				return exitcode.Wrap(exitcode.UsageError, err)
			}
		}
	}
	return nil
}

// closeSource releases the source connection, logging a failed close.
func closeSource(log zerolog.Logger, src source.Store) {
	if err := src.Close(); err != nil {
		log.Warn().Err(err).Msg("closing source connection")
	}
}

// openSource opens the configured source: a Parquet snapshot when
// --source-snapshot is set, MySQL otherwise.
func openSource(ctx context.Context, log zerolog.Logger) (source.Store, error) {
	if cfg.SnapshotDir != "" {
		snap, err := source.OpenSnapshot(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		sums, err := snap.Checksums()
		if err != nil {
			return nil, err
		}
		for name, sum := range sums {
			log.Info().Str("file", name).Str("sha256", sum).Msg("using source snapshot")
		}
		return snap, nil
	}

	store, err := source.OpenMySQL(ctx, cfg.Source.DSN, cfg.SourceParams())
	if err != nil {
		return nil, err
	}
	if cfg.Source.DSN != "" {
		log.Info().Msg("connected to source MySQL (dsn)")
	} else {
		log.Info().
			Str("host", cfg.SourceParams().Host).
			Int("port", cfg.Source.Port).
			Str("database", cfg.Source.Database).
			Msg("connected to source MySQL")
	}
	return store, nil
}
