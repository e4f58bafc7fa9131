package source

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/healthlab/patientmigrate/internal/model"
)

// Snapshot file names inside a snapshot directory.
const (
	PatientSnapshotFile   = TablePatient + ".parquet"
	DiagnosisSnapshotFile = TableDiagnosis + ".parquet"
)

const readBatchSize = 1024

// SnapshotStore reads the source tables from a Parquet snapshot directory
// written by WriteSnapshot, so a run can be repeated without the MySQL server.
type SnapshotStore struct {
	dir string
}

// OpenSnapshot checks that dir holds both snapshot files with the expected
// columns and returns a store over them.
func OpenSnapshot(dir string) (*SnapshotStore, error) {
	for _, f := range []struct {
		name     string
		required []string
	}{
		{PatientSnapshotFile, []string{"id", "first_name", "last_name"}},
		{DiagnosisSnapshotFile, []string{"patient_id"}},
	} {
		path := filepath.Join(dir, f.name)
		if err := validateSnapshotFile(path, f.required); err != nil {
			return nil, err
		}
	}
	return &SnapshotStore{dir: dir}, nil
}

// Dir returns the snapshot directory.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// Patients returns every row of the patient snapshot in file order.
func (s *SnapshotStore) Patients(ctx context.Context) ([]model.SourcePatient, error) {
	return readAll[model.SourcePatient](ctx, filepath.Join(s.dir, PatientSnapshotFile))
}

// DiagnosisRecords returns every row of the diagnosis snapshot in file order.
func (s *SnapshotStore) DiagnosisRecords(ctx context.Context) ([]model.SourceDiagnosisRecord, error) {
	return readAll[model.SourceDiagnosisRecord](ctx, filepath.Join(s.dir, DiagnosisSnapshotFile))
}

// Close is a no-op; files are opened per read.
func (s *SnapshotStore) Close() error {
	return nil
}

// Checksums returns the hex SHA-256 of each snapshot file keyed by file name.
func (s *SnapshotStore) Checksums() (map[string]string, error) {
	out := make(map[string]string, 2)
	for _, name := range []string{PatientSnapshotFile, DiagnosisSnapshotFile} {
		sum, err := fileHash(filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		out[name] = sum
	}
	return out, nil
}

var _ Store = (*SnapshotStore)(nil)

// WriteSnapshot dumps both source tables from src into dir as Parquet files.
// It returns the number of patient and diagnosis rows written.
func WriteSnapshot(ctx context.Context, src Store, dir string) (int, int, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, 0, fmt.Errorf("create snapshot dir: %w", err)
	}

	patients, err := src.Patients(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err := writeFile(filepath.Join(dir, PatientSnapshotFile), patients); err != nil {
		return 0, 0, err
	}

	records, err := src.DiagnosisRecords(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err := writeFile(filepath.Join(dir, DiagnosisSnapshotFile), records); err != nil {
		return 0, 0, err
	}
	return len(patients), len(records), nil
}

func writeFile[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close writer %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func readAll[T any](ctx context.Context, path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", filepath.Base(path), err)
	}

	r := parquet.NewGenericReader[T](pf)
	defer r.Close()

	out := make([]T, 0, r.NumRows())
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The reader fills pointer fields in place, so each batch needs its
		// own zeroed rows or earlier batches alias the later ones.
		batch := make([]T, readBatchSize)
		n, readErr := r.Read(batch)
		out = append(out, batch[:n]...)
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read %s at row %d: %w", filepath.Base(path), len(out), readErr)
		}
	}
	return out, nil
}

// validateSnapshotFile checks that the Parquet schema at path has every
// required column.
func validateSnapshotFile(path string, required []string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return fmt.Errorf("open parquet %s: %w", filepath.Base(path), err)
	}

	columns := make(map[string]bool)
	for _, field := range pf.Schema().Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	for _, col := range required {
		if !columns[col] {
			return fmt.Errorf("%s: missing required column: %s", filepath.Base(path), col)
		}
	}
	return nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
