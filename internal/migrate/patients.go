package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/model"
	"github.com/healthlab/patientmigrate/internal/source"
	embedsql "github.com/healthlab/patientmigrate/internal/sql"
	"github.com/healthlab/patientmigrate/internal/transform"
)

// progressEvery controls how often a pass logs progress at debug level.
const progressEvery = 500

// LoadPatients reads every source patient and inserts one lab5.patient row
// per patient, in source order.
func LoadPatients(ctx context.Context, src source.Store, dst db.Execer, log zerolog.Logger, dryRun bool) (*PassResult, error) {
	start := time.Now()

	patients, err := src.Patients(ctx)
	if err != nil {
		return nil, readError(PhasePatients, source.TablePatient, err)
	}
	log.Info().Int("rows", len(patients)).Msg("source patients read")

	var written int64
	for i := range patients {
		row := transform.ToDestPatient(&patients[i])
		if !dryRun {
			if err := insertRow(ctx, dst, embedsql.InsertPatient, row.Values()); err != nil {
				return nil, &PipelineError{
					Phase:     PhasePatients,
					Op:        OpInsert,
					Table:     model.TablePatient,
					Row:       int64(i + 1),
					PatientID: row.ID,
					Err:       err,
				}
			}
			written++
		}
		if (i+1)%progressEvery == 0 {
			log.Debug().Int("rows", i+1).Int("total", len(patients)).Msg("patient pass progress")
		}
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_written", written).
		Str("table", model.TablePatient).
		Str("duration", dur.String()).
		Msg("patient pass complete")

	return &PassResult{
		RowsRead:    int64(len(patients)),
		RowsWritten: map[string]int64{model.TablePatient: written},
		Duration:    dur,
	}, nil
}

// insertRow executes one single-row INSERT and checks that exactly one row
// was written.
func insertRow(ctx context.Context, dst db.Execer, query string, args []any) error {
	tag, err := dst.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("expected 1 row inserted, got %d", n)
	}
	return nil
}
