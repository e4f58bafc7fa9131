package migrate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/model"
	"github.com/healthlab/patientmigrate/internal/source"
	embedsql "github.com/healthlab/patientmigrate/internal/sql"
	"github.com/healthlab/patientmigrate/internal/transform"
)

// LoadDiagnosisRecords reads every source diagnosis record and writes one
// row each to rc_checkup, rc_labtest and rc_precords, in that order, all
// carrying the record's patient reference. The three inserts are not atomic.
func LoadDiagnosisRecords(ctx context.Context, src source.Store, dst db.Execer, log zerolog.Logger, dryRun bool) (*PassResult, error) {
	start := time.Now()

	records, err := src.DiagnosisRecords(ctx)
	if err != nil {
		return nil, readError(PhaseDiagnosis, source.TableDiagnosis, err)
	}
	log.Info().Int("rows", len(records)).Msg("source diagnosis records read")

	written := map[string]int64{
		model.TableCheckup:  0,
		model.TableLabTest:  0,
		model.TablePrecords: 0,
	}

	for i := range records {
		checkup, lab, prec := transform.SplitDiagnosis(&records[i])

		if !dryRun {
			inserts := []struct {
				table string
				query string
				args  []any
			}{
				{model.TableCheckup, embedsql.InsertCheckup, checkup.Values()},
				{model.TableLabTest, embedsql.InsertLabTest, lab.Values()},
				{model.TablePrecords, embedsql.InsertPrecords, prec.Values()},
			}
			for _, ins := range inserts {
				if err := insertRow(ctx, dst, ins.query, ins.args); err != nil {
					return nil, &PipelineError{
						Phase:     PhaseDiagnosis,
						Op:        OpInsert,
						Table:     ins.table,
						Row:       int64(i + 1),
						PatientID: records[i].PatientID,
						Err:       err,
					}
				}
				written[ins.table]++
			}
		}
		if (i+1)%progressEvery == 0 {
			log.Debug().Int("rows", i+1).Int("total", len(records)).Msg("diagnosis pass progress")
		}
	}

	dur := time.Since(start)
	log.Info().
		Int64("checkup_rows", written[model.TableCheckup]).
		Int64("labtest_rows", written[model.TableLabTest]).
		Int64("precords_rows", written[model.TablePrecords]).
		Str("duration", dur.String()).
		Msg("diagnosis pass complete")

	return &PassResult{
		RowsRead:    int64(len(records)),
		RowsWritten: written,
		Duration:    dur,
	}, nil
}
