package sql

import (
	"embed"
)

//go:embed queries/ensure_schema.sql
var EnsureSchema string

//go:embed queries/select_patients.sql
var SelectPatients string

//go:embed queries/select_diagnosis_records.sql
var SelectDiagnosisRecords string

//go:embed queries/insert_patient.sql
var InsertPatient string

//go:embed queries/insert_checkup.sql
var InsertCheckup string

//go:embed queries/insert_labtest.sql
var InsertLabTest string

//go:embed queries/insert_precords.sql
var InsertPrecords string

// Migrations holds create-if-absent DDL for the destination tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS
