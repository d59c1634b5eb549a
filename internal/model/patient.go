package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is the patient's postal address. Absent addresses are modelled as a
// nil pointer on the patient, not as a zero struct.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a Address) Value() (driver.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal address: %w", err)
	}
	return string(data), nil
}

func (a *Address) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported address type %T", src)
	}
	return json.Unmarshal(data, a)
}

// MedicalRecord is one append-only entry of a patient's medical history.
type MedicalRecord struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	Diagnosis string    `json:"diagnosis"`
	Treatment string    `json:"treatment"`
	Notes     string    `json:"notes,omitempty"`
}

// MedicalHistory is the patient's record list, stored as a JSONB column.
type MedicalHistory []MedicalRecord

func (h MedicalHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal medical history: %w", err)
	}
	return string(data), nil
}

func (h *MedicalHistory) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported medical history type %T", src)
	}
	return json.Unmarshal(data, h)
}

// Patient is a demographic record. Age is always derived from BirthDate,
// never stored.
type Patient struct {
	Base
	FirstName      string         `json:"first_name" db:"first_name"`
	LastName       string         `json:"last_name" db:"last_name"`
	IDNumber       string         `json:"id_number" db:"id_number"`
	Phone          string         `json:"phone" db:"phone"`
	Email          *string        `json:"email,omitempty" db:"email"`
	BirthDate      *time.Time     `json:"birth_date,omitempty" db:"birth_date"`
	Address        *Address       `json:"address,omitempty" db:"address"`
	MedicalHistory MedicalHistory `json:"medical_history" db:"medical_history"`
}

// FullName joins first and last name with a single space.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type CreatePatientRequest struct {
	FirstName string     `json:"first_name" binding:"required"`
	LastName  string     `json:"last_name" binding:"required"`
	IDNumber  string     `json:"id_number" binding:"required"`
	Phone     string     `json:"phone" binding:"required"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	BirthDate *time.Time `json:"birth_date"`
	Address   *Address   `json:"address"`
}

type UpdatePatientRequest struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	IDNumber  *string    `json:"id_number"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	BirthDate *time.Time `json:"birth_date"`
	Address   *Address   `json:"address"`
}

type AddMedicalRecordRequest struct {
	Date      time.Time `json:"date" binding:"required"`
	Diagnosis string    `json:"diagnosis" binding:"required"`
	Treatment string    `json:"treatment" binding:"required"`
	Notes     string    `json:"notes"`
}

type PatientFilters struct {
	SearchTerm string `form:"search_term"`
}
