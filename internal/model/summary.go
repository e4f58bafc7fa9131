package model

import "time"

// MigrationSummary captures metrics from a single migration run.
type MigrationSummary struct {
	RunID             string
	DryRun            bool
	PatientsRead      int64
	RecordsRead       int64
	RowsWritten       map[string]int64 // keyed by destination table
	DurationSchema    time.Duration
	DurationPatients  time.Duration
	DurationDiagnosis time.Duration
	DurationTotal     time.Duration
}

// TotalWritten sums RowsWritten across all destination tables.
func (s *MigrationSummary) TotalWritten() int64 {
	var n int64
	for _, v := range s.RowsWritten {
		n += v
	}
	return n
}
