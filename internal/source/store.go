// Package source reads the normalized patient and diagnosis tables the
// migration copies from. Reads are bulk: every call returns the complete
// table in the order the store yields it, with no filtering or ordering.
package source

import (
	"context"
	"fmt"

	"github.com/healthlab/patientmigrate/internal/model"
)

// Store is the read interface over the source data.
type Store interface {
	Patients(ctx context.Context) ([]model.SourcePatient, error)
	DiagnosisRecords(ctx context.Context) ([]model.SourceDiagnosisRecord, error)
	Close() error
}

// RowError reports a source row that could not be decoded, such as an
// unexpected NULL in a required column.
type RowError struct {
	Table string
	Row   int64 // 1-based position in the result set
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("read %s row %d: %s", e.Table, e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
