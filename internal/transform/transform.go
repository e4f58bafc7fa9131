package transform

import (
	"github.com/healthlab/patientmigrate/internal/model"
)

// ToDestPatient converts a source patient row into its lab5.patient row.
// The identifier is carried over unchanged.
func ToDestPatient(p *model.SourcePatient) *model.DestPatient {
	return &model.DestPatient{
		ID:        p.ID,
		FullName:  FullName(p.FirstName, p.MiddleName, p.LastName),
		Address:   p.Address,
		ContactNo: p.ContactNumber,
		Email:     p.EmailAddress,
		IsFemale:  SexFlag(p.Sex),
	}
}

// SplitDiagnosis denormalizes one diagnosis record into its checkup, lab test
// and personal-record rows. All three carry the record's patient reference.
// BMI is passed through as the raw measurement.
func SplitDiagnosis(r *model.SourceDiagnosisRecord) (*model.DestCheckup, *model.DestLabTest, *model.DestPrecords) {
	checkup := &model.DestCheckup{
		PatientID:     r.PatientID,
		Glucose:       r.Glucose,
		BloodPressure: r.BloodPressure,
		SkinThickness: r.SkinThickness,
		BMI:           r.BMI,
	}
	lab := &model.DestLabTest{
		PatientID: r.PatientID,
		Insulin:   r.Insulin,
		Pedigree:  r.Pedigree,
		Outcome:   OutcomeFlag(r.Outcome),
	}
	prec := &model.DestPrecords{
		PatientID:   r.PatientID,
		Age:         r.Age,
		Pregnancies: r.Pregnancies,
	}
	return checkup, lab, prec
}
