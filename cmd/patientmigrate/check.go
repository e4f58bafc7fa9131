package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/exitcode"
	"github.com/healthlab/patientmigrate/internal/logging"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and connectivity to both databases",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	src, err := openSource(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("source connection failed")
		return exitcode.Wrap(exitcode.SourceConnError, err)
	}
	defer closeSource(log, src)

	pool, err := db.NewPool(ctx, cfg.DestDSN())
	if err != nil {
		log.Error().Err(err).Msg("destination connection failed")
		return exitcode.Wrap(exitcode.DestConnError, err)
	}
	defer pool.Close()

	fmt.Println("Configuration is valid and both databases are accessible")
	return nil
}
