package model

// SourcePatient mirrors one row of the source `patient` table.
// Parquet tags describe the snapshot file layout written by the snapshot command.
type SourcePatient struct {
	ID         int64   `parquet:"id"`
	FirstName  string  `parquet:"first_name"`
	MiddleName *string `parquet:"middle_name,optional"`
	LastName   string  `parquet:"last_name"`

	Address       *string `parquet:"address,optional"`
	ContactNumber *string `parquet:"contact_number,optional"`
	EmailAddress  *string `parquet:"email_address,optional"`
	Sex           *string `parquet:"sex,optional"`
}

// SourceDiagnosisRecord mirrors one row of the source `diabetestdiagnosisrecords` table.
// Measurements are nullable and copied as-is; only PatientID is required.
type SourceDiagnosisRecord struct {
	PatientID int64 `parquet:"patient_id"`

	Glucose       *int64   `parquet:"glucose,optional"`
	BloodPressure *int64   `parquet:"blood_pressure,optional"`
	SkinThickness *int64   `parquet:"skin_thickness,optional"`
	Insulin       *int64   `parquet:"insulin,optional"`
	BMI           *float64 `parquet:"bmi,optional"`
	Pedigree      *float64 `parquet:"diabetes_pedigree_function,optional"`
	Outcome       *int64   `parquet:"outcome,optional"`
	Age           *int64   `parquet:"age,optional"`
	Pregnancies   *int64   `parquet:"pregnancies,optional"`
}

// SourcePatientColumns returns the source column names in scan order.
func SourcePatientColumns() []string {
	return []string{
		"id",
		"FirstName",
		"MiddleName",
		"LastName",
		"Address",
		"ContactNumber",
		"EmailAddress",
		"Sex",
	}
}

// ScanTargets returns pointers to the fields in SourcePatientColumns() order.
func (p *SourcePatient) ScanTargets() []any {
	return []any{
		&p.ID,
		&p.FirstName,
		&p.MiddleName,
		&p.LastName,
		&p.Address,
		&p.ContactNumber,
		&p.EmailAddress,
		&p.Sex,
	}
}

// SourceDiagnosisColumns returns the source column names in scan order.
func SourceDiagnosisColumns() []string {
	return []string{
		"patientId",
		"Glucose",
		"BloodPressure",
		"SkinThickness",
		"Insulin",
		"BMI",
		"DiabetesPedigreeFunction",
		"Outcome",
		"Age",
		"Pregnancies",
	}
}

// ScanTargets returns pointers to the fields in SourceDiagnosisColumns() order.
func (r *SourceDiagnosisRecord) ScanTargets() []any {
	return []any{
		&r.PatientID,
		&r.Glucose,
		&r.BloodPressure,
		&r.SkinThickness,
		&r.Insulin,
		&r.BMI,
		&r.Pedigree,
		&r.Outcome,
		&r.Age,
		&r.Pregnancies,
	}
}
