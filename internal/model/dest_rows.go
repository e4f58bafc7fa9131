package model

// DestPatient is one row of lab5.patient.
type DestPatient struct {
	ID        int64
	FullName  string
	Address   *string
	ContactNo *string
	Email     *string
	IsFemale  bool
}

// DestCheckup is one row of lab5.rc_checkup.
type DestCheckup struct {
	PatientID     int64
	Glucose       *int64
	BloodPressure *int64
	SkinThickness *int64
	BMI           *float64
}

// DestLabTest is one row of lab5.rc_labtest.
type DestLabTest struct {
	PatientID int64
	Insulin   *int64
	Pedigree  *float64
	Outcome   bool
}

// DestPrecords is one row of lab5.rc_precords.
type DestPrecords struct {
	PatientID   int64
	Age         *int64
	Pregnancies *int64
}

// Destination table names, schema-qualified.
const (
	TablePatient  = "lab5.patient"
	TableCheckup  = "lab5.rc_checkup"
	TableLabTest  = "lab5.rc_labtest"
	TablePrecords = "lab5.rc_precords"
)

// DestPatientColumns returns the insert column order for lab5.patient.
func DestPatientColumns() []string {
	return []string{"id", "fullname", "address", "contactno", "eadd", "sex"}
}

// Values returns the row in DestPatientColumns() order.
func (p *DestPatient) Values() []any {
	return []any{p.ID, p.FullName, p.Address, p.ContactNo, p.Email, p.IsFemale}
}

// DestCheckupColumns returns the insert column order for lab5.rc_checkup.
func DestCheckupColumns() []string {
	return []string{"p_id", "glucose", "bp", "skinthickness", "bmi"}
}

// Values returns the row in DestCheckupColumns() order.
func (c *DestCheckup) Values() []any {
	return []any{c.PatientID, c.Glucose, c.BloodPressure, c.SkinThickness, c.BMI}
}

// DestLabTestColumns returns the insert column order for lab5.rc_labtest.
func DestLabTestColumns() []string {
	return []string{"p_id", "insulin", "diapedifunction", "outcome"}
}

// Values returns the row in DestLabTestColumns() order.
func (l *DestLabTest) Values() []any {
	return []any{l.PatientID, l.Insulin, l.Pedigree, l.Outcome}
}

// DestPrecordsColumns returns the insert column order for lab5.rc_precords.
func DestPrecordsColumns() []string {
	return []string{"p_id", "age", "pregnancy"}
}

// Values returns the row in DestPrecordsColumns() order.
func (r *DestPrecords) Values() []any {
	return []any{r.PatientID, r.Age, r.Pregnancies}
}
