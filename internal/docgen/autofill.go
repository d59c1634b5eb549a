package docgen

import (
	"strconv"
	"strings"
	"time"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// Deriver computes values for patient_info fields from a patient record. The
// clock is injectable so age derivation stays testable.
type Deriver struct {
	now func() time.Time
}

func NewDeriver() *Deriver {
	return &Deriver{now: time.Now}
}

func NewDeriverWithClock(now func() time.Time) *Deriver {
	return &Deriver{now: now}
}

// Derive resolves the patient attribute named by field.PatientField. The
// second return value is false when no value could be derived; that is a
// sentinel, not an error, and downstream formatting turns it into a blank
// marker. Fields of any other type never derive.
func (d *Deriver) Derive(field model.TemplateField, patient *model.Patient) (string, bool) {
	if field.Type != model.FieldTypePatientInfo || patient == nil {
		return "", false
	}

	switch field.PatientField {
	case model.PatientFieldFullName:
		name := patient.FullName()
		return name, name != ""
	case model.PatientFieldAge:
		return d.deriveAge(patient)
	case model.PatientFieldAddress:
		if patient.Address == nil {
			return "", false
		}
		return patient.Address.Street + ", " + patient.Address.City, true
	default:
		return lookupPatientAttribute(patient, field.PatientField)
	}
}

// AgeYears computes whole years as floor((now - birth) / 365.25 days).
func (d *Deriver) AgeYears(birthDate time.Time) int {
	elapsed := d.now().Sub(birthDate)
	return int(elapsed.Hours() / (365.25 * 24))
}

func (d *Deriver) deriveAge(patient *model.Patient) (string, bool) {
	if patient.BirthDate == nil || patient.BirthDate.IsZero() {
		return "", false
	}
	age := d.AgeYears(*patient.BirthDate)
	if age < 0 {
		return "", false
	}
	return strconv.Itoa(age), true
}

// lookupPatientAttribute resolves an arbitrary PatientField key against the
// primitive attributes of the record. Unknown or non-primitive keys fail.
func lookupPatientAttribute(patient *model.Patient, key string) (string, bool) {
	var value string
	switch key {
	case "first_name", "firstName":
		value = patient.FirstName
	case "last_name", "lastName":
		value = patient.LastName
	case "id_number", "idNumber":
		value = patient.IDNumber
	case "phone":
		value = patient.Phone
	case "email":
		if patient.Email == nil {
			return "", false
		}
		value = *patient.Email
	default:
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
