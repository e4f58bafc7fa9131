package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthlab/patientmigrate/internal/exitcode"
	"github.com/healthlab/patientmigrate/internal/logging"
	"github.com/healthlab/patientmigrate/internal/migrate"
	"github.com/healthlab/patientmigrate/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run: read and transform every source row, write nothing",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateSource(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		return exitcode.Wrap(exitcode.ValidationError, err)
	}

	src, err := openSource(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("source connection failed")
		return exitcode.Wrap(exitcode.SourceConnError, err)
	}
	defer closeSource(log, src)

	summary, err := migrate.Run(ctx, src, nil, log, migrate.Options{DryRun: true})
	if err != nil {
		log.Error().Err(err).Msg("plan failed")
		return exitcode.Wrap(exitcode.ReadError, err)
	}

	fmt.Println("=== patientmigrate plan ===")
	fmt.Printf("Run ID:             %s\n", summary.RunID)
	fmt.Printf("Source patients:    %d\n", summary.PatientsRead)
	fmt.Printf("Diagnosis records:  %d\n", summary.RecordsRead)
	fmt.Println()
	fmt.Println("Rows a migrate run would insert:")
	fmt.Printf("  %-20s %d\n", model.TablePatient, summary.PatientsRead)
	for _, tbl := range []string{model.TableCheckup, model.TableLabTest, model.TablePrecords} {
		fmt.Printf("  %-20s %d\n", tbl, summary.RecordsRead)
	}
	fmt.Printf("\nTotal: %d rows\n", summary.PatientsRead+3*summary.RecordsRead)
	fmt.Println("Transform: OK")
	return nil
}
