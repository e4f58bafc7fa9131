package migrate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/healthlab/patientmigrate/internal/db"
	"github.com/healthlab/patientmigrate/internal/migrate"
	"github.com/healthlab/patientmigrate/internal/model"
	"github.com/healthlab/patientmigrate/internal/source"
	embedsql "github.com/healthlab/patientmigrate/internal/sql"
)

// ---------- fakes ----------

type execCall struct {
	query string
	args  []any
}

// recordingExecer records every statement and fails the failAt-th call
// (1-based) with failErr.
type recordingExecer struct {
	calls   []execCall
	failAt  int
	failErr error
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.calls = append(r.calls, execCall{query: sql, args: args})
	if r.failAt == len(r.calls) {
		return pgconn.CommandTag{}, r.failErr
	}
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE SCHEMA"), nil
}

// inserts returns the recorded INSERT calls only.
func (r *recordingExecer) inserts() []execCall {
	var out []execCall
	for _, c := range r.calls {
		if strings.HasPrefix(strings.TrimSpace(c.query), "INSERT") {
			out = append(out, c)
		}
	}
	return out
}

// memStore is an in-memory source.Store. It notes how many statements the
// paired execer had seen when each table was fetched.
type memStore struct {
	patients    []model.SourcePatient
	records     []model.SourceDiagnosisRecord
	patientsErr error
	recordsErr  error

	exec             *recordingExecer
	recordsFetchedAt int
}

func (m *memStore) Patients(ctx context.Context) ([]model.SourcePatient, error) {
	return m.patients, m.patientsErr
}

func (m *memStore) DiagnosisRecords(ctx context.Context) ([]model.SourceDiagnosisRecord, error) {
	if m.exec != nil {
		m.recordsFetchedAt = len(m.exec.calls)
	}
	return m.records, m.recordsErr
}

func (m *memStore) Close() error {
	return nil
}

var _ source.Store = (*memStore)(nil)

// ---------- helpers ----------

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func float64Ptr(v float64) *float64 { return &v }

func nopLog() zerolog.Logger { return zerolog.Nop() }

// deref flattens pointer arguments so recorded calls compare by value.
func deref(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *int64:
			if v != nil {
				out[i] = *v
			}
		case *float64:
			if v != nil {
				out[i] = *v
			}
		case *string:
			if v != nil {
				out[i] = *v
			}
		default:
			out[i] = v
		}
	}
	return out
}

func assertArgs(t *testing.T, label string, got, want []any) {
	t.Helper()
	got = deref(got)
	if len(got) != len(want) {
		t.Fatalf("%s: got %d args %v, want %d %v", label, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s arg %d: got %v (%T), want %v (%T)", label, i, got[i], got[i], want[i], want[i])
		}
	}
}

func annLee() *memStore {
	return &memStore{
		patients: []model.SourcePatient{{
			ID:            7,
			FirstName:     "Ann",
			MiddleName:    strPtr(""),
			LastName:      "Lee",
			Address:       strPtr("1 Main St"),
			ContactNumber: strPtr("555-0100"),
			EmailAddress:  strPtr("ann@example.com"),
			Sex:           strPtr("Female"),
		}},
		records: []model.SourceDiagnosisRecord{{
			PatientID:     7,
			Glucose:       int64Ptr(120),
			BloodPressure: int64Ptr(70),
			SkinThickness: int64Ptr(30),
			BMI:           float64Ptr(28.5),
			Insulin:       int64Ptr(80),
			Pedigree:      float64Ptr(0.5),
			Outcome:       int64Ptr(1),
			Age:           int64Ptr(45),
			Pregnancies:   int64Ptr(2),
		}},
	}
}

// ---------- tests ----------

func TestRun_AnnLeeScenario(t *testing.T) {
	exec := &recordingExecer{}
	src := annLee()

	summary, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(exec.calls) != 5 {
		t.Fatalf("expected 5 statements (schema + 4 inserts), got %d", len(exec.calls))
	}
	if exec.calls[0].query != embedsql.EnsureSchema {
		t.Errorf("first statement should ensure the schema, got %q", exec.calls[0].query)
	}

	want := []struct {
		query string
		args  []any
	}{
		{embedsql.InsertPatient, []any{int64(7), "Ann Lee", "1 Main St", "555-0100", "ann@example.com", true}},
		{embedsql.InsertCheckup, []any{int64(7), int64(120), int64(70), int64(30), 28.5}},
		{embedsql.InsertLabTest, []any{int64(7), int64(80), 0.5, true}},
		{embedsql.InsertPrecords, []any{int64(7), int64(45), int64(2)}},
	}
	for i, w := range want {
		call := exec.calls[i+1]
		if call.query != w.query {
			t.Errorf("statement %d: got %q, want %q", i+1, call.query, w.query)
			continue
		}
		assertArgs(t, strings.Fields(w.query)[2], call.args, w.args)
	}

	if summary.PatientsRead != 1 || summary.RecordsRead != 1 {
		t.Errorf("read counts: patients=%d records=%d", summary.PatientsRead, summary.RecordsRead)
	}
	for _, tbl := range []string{model.TablePatient, model.TableCheckup, model.TableLabTest, model.TablePrecords} {
		if summary.RowsWritten[tbl] != 1 {
			t.Errorf("RowsWritten[%s]: got %d, want 1", tbl, summary.RowsWritten[tbl])
		}
	}
	if summary.TotalWritten() != 4 {
		t.Errorf("TotalWritten: got %d, want 4", summary.TotalWritten())
	}
	if summary.RunID == "" {
		t.Error("RunID should be set")
	}
}

func TestRun_ThreeRowsPerRecordSharedReference(t *testing.T) {
	exec := &recordingExecer{}
	src := &memStore{
		patients: []model.SourcePatient{
			{ID: 1, FirstName: "A", LastName: "One"},
			{ID: 2, FirstName: "B", LastName: "Two"},
		},
		records: []model.SourceDiagnosisRecord{
			{PatientID: 2, Outcome: int64Ptr(0)},
			{PatientID: 1, Outcome: int64Ptr(1)},
			{PatientID: 2},
		},
	}

	summary, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	diag := exec.inserts()[2:]
	if len(diag) != 9 {
		t.Fatalf("expected 9 diagnosis inserts, got %d", len(diag))
	}
	for i, rec := range src.records {
		group := diag[i*3 : i*3+3]
		order := []string{embedsql.InsertCheckup, embedsql.InsertLabTest, embedsql.InsertPrecords}
		for j, call := range group {
			if call.query != order[j] {
				t.Errorf("record %d insert %d: wrong statement %q", i, j, call.query)
			}
			if call.args[0] != rec.PatientID {
				t.Errorf("record %d insert %d: patient reference %v, want %d", i, j, call.args[0], rec.PatientID)
			}
		}
	}
	for _, tbl := range []string{model.TableCheckup, model.TableLabTest, model.TablePrecords} {
		if summary.RowsWritten[tbl] != 3 {
			t.Errorf("RowsWritten[%s]: got %d, want 3", tbl, summary.RowsWritten[tbl])
		}
	}
}

func TestRun_PatientPassPrecedesDiagnosisPass(t *testing.T) {
	exec := &recordingExecer{}
	src := &memStore{
		exec: exec,
		patients: []model.SourcePatient{
			{ID: 1, FirstName: "A", LastName: "One"},
			{ID: 2, FirstName: "B", LastName: "Two"},
			{ID: 3, FirstName: "C", LastName: "Three"},
		},
		records: []model.SourceDiagnosisRecord{{PatientID: 3}, {PatientID: 1}},
	}

	if _, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// schema + 3 patient inserts happen before diagnosis records are even fetched.
	if src.recordsFetchedAt != 4 {
		t.Errorf("diagnosis records fetched after %d statements, want 4", src.recordsFetchedAt)
	}
	ins := exec.inserts()
	for i := 0; i < 3; i++ {
		if ins[i].query != embedsql.InsertPatient {
			t.Errorf("insert %d should be a patient insert", i)
		}
		if ins[i].args[0] != int64(i+1) {
			t.Errorf("patient insert %d: id %v, want source order %d", i, ins[i].args[0], i+1)
		}
	}
	for _, call := range ins[3:] {
		if call.query == embedsql.InsertPatient {
			t.Error("patient insert interleaved with diagnosis inserts")
		}
	}
}

func TestRun_AbortsOnFirstInsertFailure(t *testing.T) {
	// Statement 4 = schema, patient, checkup, labtest → the lab test insert fails.
	exec := &recordingExecer{failAt: 4, failErr: errors.New("connection reset")}
	src := annLee()
	src.records = append(src.records, model.SourceDiagnosisRecord{PatientID: 7})

	summary, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if summary != nil {
		t.Error("summary should be nil on failure")
	}

	var pe *migrate.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PipelineError, got %T", err)
	}
	if pe.Phase != migrate.PhaseDiagnosis || pe.Op != migrate.OpInsert {
		t.Errorf("phase/op: got %s/%s", pe.Phase, pe.Op)
	}
	if pe.Table != model.TableLabTest || pe.Row != 1 || pe.PatientID != 7 {
		t.Errorf("location: table=%s row=%d patient=%d", pe.Table, pe.Row, pe.PatientID)
	}
	if len(exec.calls) != 4 {
		t.Errorf("run should stop at the failing statement, saw %d statements", len(exec.calls))
	}
	msg := err.Error()
	for _, part := range []string{"diagnosis", "lab5.rc_labtest", "row 1", "patient id 7", "connection reset"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message %q missing %q", msg, part)
		}
	}
}

func TestRun_PatientInsertFailure(t *testing.T) {
	exec := &recordingExecer{failAt: 2, failErr: &pgconn.PgError{Code: "23505", Message: "duplicate key"}}
	src := annLee()

	_, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
	var pe *migrate.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PipelineError, got %v", err)
	}
	if pe.Phase != migrate.PhasePatients || pe.Table != model.TablePatient || pe.Row != 1 {
		t.Errorf("unexpected location: %+v", pe)
	}
	if !db.IsUniqueViolation(err) {
		t.Error("unique violation should be detectable through PipelineError")
	}
	if !strings.Contains(err.Error(), "not idempotent") {
		t.Errorf("expected re-run hint in %q", err.Error())
	}
	if len(exec.calls) != 2 {
		t.Errorf("no diagnosis work after a patient failure, saw %d statements", len(exec.calls))
	}
}

func TestRun_SchemaFailure(t *testing.T) {
	exec := &recordingExecer{failAt: 1, failErr: errors.New("permission denied")}

	_, err := migrate.Run(context.Background(), annLee(), exec, nopLog(), migrate.Options{})
	var pe *migrate.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PipelineError, got %v", err)
	}
	if pe.Phase != migrate.PhaseSchema || pe.Op != migrate.OpDDL {
		t.Errorf("phase/op: got %s/%s", pe.Phase, pe.Op)
	}
	if len(exec.calls) != 1 {
		t.Errorf("no inserts after schema failure, saw %d statements", len(exec.calls))
	}
}

func TestRun_SourceReadFailure(t *testing.T) {
	t.Run("patients", func(t *testing.T) {
		exec := &recordingExecer{}
		src := annLee()
		src.patientsErr = &source.RowError{Table: source.TablePatient, Row: 3, Err: errors.New("NULL id")}

		_, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
		var pe *migrate.PipelineError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *PipelineError, got %v", err)
		}
		if pe.Op != migrate.OpRead || pe.Phase != migrate.PhasePatients || pe.Row != 3 {
			t.Errorf("unexpected read error: %+v", pe)
		}
		if len(exec.inserts()) != 0 {
			t.Error("no inserts expected after a patient read failure")
		}
	})

	t.Run("diagnosis", func(t *testing.T) {
		exec := &recordingExecer{}
		src := annLee()
		src.recordsErr = errors.New("server gone away")

		_, err := migrate.Run(context.Background(), src, exec, nopLog(), migrate.Options{})
		var pe *migrate.PipelineError
		if !errors.As(err, &pe) {
			t.Fatalf("expected *PipelineError, got %v", err)
		}
		if pe.Op != migrate.OpRead || pe.Phase != migrate.PhaseDiagnosis || pe.Table != source.TableDiagnosis {
			t.Errorf("unexpected read error: %+v", pe)
		}
		if pe.Row != 0 {
			t.Errorf("Row should be 0 for a non-row failure, got %d", pe.Row)
		}
		if n := len(exec.inserts()); n != 1 {
			t.Errorf("patient pass should have completed, saw %d inserts", n)
		}
	})
}

func TestRun_DryRun(t *testing.T) {
	src := annLee()

	summary, err := migrate.Run(context.Background(), src, nil, nopLog(), migrate.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun {
		t.Error("summary should be flagged as dry run")
	}
	if summary.PatientsRead != 1 || summary.RecordsRead != 1 {
		t.Errorf("read counts: %d/%d", summary.PatientsRead, summary.RecordsRead)
	}
	if summary.TotalWritten() != 0 {
		t.Errorf("dry run wrote %d rows", summary.TotalWritten())
	}
}

func TestRun_NilDestinationRequiresDryRun(t *testing.T) {
	if _, err := migrate.Run(context.Background(), annLee(), nil, nopLog(), migrate.Options{}); err == nil {
		t.Fatal("expected error without destination")
	}
}

func TestRun_CreateTables(t *testing.T) {
	exec := &recordingExecer{}

	if _, err := migrate.Run(context.Background(), annLee(), exec, nopLog(), migrate.Options{CreateTables: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(exec.calls) < 2 {
		t.Fatalf("expected schema and table DDL, got %d statements", len(exec.calls))
	}
	if exec.calls[0].query != embedsql.EnsureSchema {
		t.Errorf("first statement: %q", exec.calls[0].query)
	}
	if !strings.Contains(exec.calls[1].query, "CREATE TABLE IF NOT EXISTS lab5.patient") {
		t.Errorf("second statement should create the tables, got %q", exec.calls[1].query)
	}
	if n := len(exec.inserts()); n != 4 {
		t.Errorf("expected 4 inserts, got %d", n)
	}
}

func TestRun_EmptySource(t *testing.T) {
	exec := &recordingExecer{}

	summary, err := migrate.Run(context.Background(), &memStore{}, exec, nopLog(), migrate.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalWritten() != 0 || len(exec.calls) != 1 {
		t.Errorf("empty source: wrote %d rows over %d statements", summary.TotalWritten(), len(exec.calls))
	}
}

func TestInsertRow_RowsAffectedMismatch(t *testing.T) {
	exec := zeroRowExecer{}
	_, err := migrate.LoadPatients(context.Background(), annLee(), exec, nopLog(), false)
	if err == nil || !strings.Contains(err.Error(), "expected 1 row inserted, got 0") {
		t.Fatalf("expected rows-affected error, got %v", err)
	}
}

type zeroRowExecer struct{}

func (zeroRowExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 0"), nil
}
