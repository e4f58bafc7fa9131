package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/model"
	"github.com/healthlab/patientmigrate/internal/source"
)

// Phases of a run, in execution order.
const (
	PhaseSchema    = "schema"
	PhasePatients  = "patients"
	PhaseDiagnosis = "diagnosis"
)

// Operations a PipelineError can report.
const (
	OpRead   = "read"
	OpInsert = "insert"
	OpDDL    = "ddl"
)

// PipelineError wraps an error with where in the run it occurred.
type PipelineError struct {
	Phase     string
	Op        string
	Table     string // source table for reads, destination table otherwise
	Row       int64  // 1-based source row; 0 when the failure is not row specific
	PatientID int64
	Err       error
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", e.Phase, e.Op, e.Table)
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
		if e.Op == OpInsert {
			msg += fmt.Sprintf(" (patient id %d)", e.PatientID)
		}
	}
	msg += ": " + e.Err.Error()
	if hint := db.Hint(e.Err); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options control a single run.
type Options struct {
	// CreateTables applies the embedded lab5 table DDL before loading.
	CreateTables bool
	// DryRun reads and transforms every row without writing.
	DryRun bool
}

// Run executes the full migration: schema → patients → diagnosis records.
// The patient pass completes before any diagnosis row is written, so
// destination foreign keys to lab5.patient are always satisfiable. The run
// stops at the first failure; rows written before it stay written. Closing
// src and dst is the caller's job. dst may be nil for a dry run.
func Run(ctx context.Context, src source.Store, dst db.Execer, log zerolog.Logger, opts Options) (*model.MigrationSummary, error) {
	totalStart := time.Now()
	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	if dst == nil && !opts.DryRun {
		return nil, fmt.Errorf("no destination connection for a non dry run")
	}

	summary := &model.MigrationSummary{
		RunID:       runID,
		DryRun:      opts.DryRun,
		RowsWritten: make(map[string]int64),
	}

	// Phase 1: Schema
	if opts.DryRun {
		log.Info().Msg("dry run: skipping schema setup and all writes")
	} else {
		log.Info().Bool("create_tables", opts.CreateTables).Msg("ensuring destination schema")
		dur, err := PrepareSchema(ctx, dst, log, opts.CreateTables)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseSchema, Op: OpDDL, Table: "lab5", Err: err}
		}
		summary.DurationSchema = dur
	}

	// Phase 2: Patients
	log.Info().Msg("starting patient pass")
	pr, err := LoadPatients(ctx, src, dst, log, opts.DryRun)
	if err != nil {
		return nil, err
	}
	summary.PatientsRead = pr.RowsRead
	summary.DurationPatients = pr.Duration
	mergeCounts(summary.RowsWritten, pr.RowsWritten)

	// Phase 3: Diagnosis records
	log.Info().Msg("starting diagnosis pass")
	dr, err := LoadDiagnosisRecords(ctx, src, dst, log, opts.DryRun)
	if err != nil {
		return nil, err
	}
	summary.RecordsRead = dr.RowsRead
	summary.DurationDiagnosis = dr.Duration
	mergeCounts(summary.RowsWritten, dr.RowsWritten)

	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int64("patients_read", summary.PatientsRead).
		Int64("records_read", summary.RecordsRead).
		Int64("rows_written", summary.TotalWritten()).
		Bool("dry_run", summary.DryRun).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("migration complete")

	return summary, nil
}

// PassResult holds metrics from one pass over a source table.
type PassResult struct {
	RowsRead    int64
	RowsWritten map[string]int64 // keyed by destination table
	Duration    time.Duration
}

func mergeCounts(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

// readError tags a source read failure with its phase and, when the store
// reported one, the offending row.
func readError(phase, table string, err error) error {
	pe := &PipelineError{Phase: phase, Op: OpRead, Table: table, Err: err}
	var rowErr *source.RowError
	if errors.As(err, &rowErr) {
		pe.Row = rowErr.Row
	}
	return pe
}
