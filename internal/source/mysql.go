package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/healthlab/patientmigrate/internal/model"
	embedsql "github.com/healthlab/patientmigrate/internal/sql"
)

// Source table names as they appear in the MySQL schema.
const (
	TablePatient   = "patient"
	TableDiagnosis = "diabetestdiagnosisrecords"
)

// SQLStore reads the source tables through database/sql. Production runs use
// the MySQL driver; any driver that accepts backtick-quoted identifiers works.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open handle. The store takes ownership and closes it.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// MySQLParams are the connection settings for the source database.
type MySQLParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders the params in go-sql-driver/mysql format.
func (p MySQLParams) DSN() string {
	c := mysql.NewConfig()
	c.User = p.User
	c.Passwd = p.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	c.DBName = p.Database
	c.ParseTime = true
	return c.FormatDSN()
}

// OpenMySQL connects and pings the source database. dsn takes precedence
// over params when non-empty.
func OpenMySQL(ctx context.Context, dsn string, params MySQLParams) (*SQLStore, error) {
	if dsn == "" {
		dsn = params.DSN()
	}
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	// One source connection for the whole run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return NewSQLStore(db), nil
}

// Patients returns every row of the patient table.
func (s *SQLStore) Patients(ctx context.Context) ([]model.SourcePatient, error) {
	rows, err := s.db.QueryContext(ctx, embedsql.SelectPatients)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TablePatient, err)
	}
	defer rows.Close()

	var out []model.SourcePatient
	var n int64
	for rows.Next() {
		n++
		var p model.SourcePatient
		if err := rows.Scan(p.ScanTargets()...); err != nil {
			return nil, &RowError{Table: TablePatient, Row: n, Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", TablePatient, err)
	}
	return out, nil
}

// DiagnosisRecords returns every row of the diagnosis-record table.
func (s *SQLStore) DiagnosisRecords(ctx context.Context) ([]model.SourceDiagnosisRecord, error) {
	rows, err := s.db.QueryContext(ctx, embedsql.SelectDiagnosisRecords)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", TableDiagnosis, err)
	}
	defer rows.Close()

	var out []model.SourceDiagnosisRecord
	var n int64
	for rows.Next() {
		n++
		var r model.SourceDiagnosisRecord
		if err := rows.Scan(r.ScanTargets()...); err != nil {
			return nil, &RowError{Table: TableDiagnosis, Row: n, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", TableDiagnosis, err)
	}
	return out, nil
}

// Ping checks that the source connection is alive.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the source connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
