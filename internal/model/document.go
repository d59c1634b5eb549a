package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is advanced by explicit user action only; the service layer
// does not enforce a transition order.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusCompleted DocumentStatus = "completed"
	DocumentStatusSigned    DocumentStatus = "signed"
	DocumentStatusExported  DocumentStatus = "exported"
	DocumentStatusArchived  DocumentStatus = "archived"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusCompleted, DocumentStatusSigned,
		DocumentStatusExported, DocumentStatusArchived:
		return true
	}
	return false
}

// Hebrew returns the status label used in rendered artifacts.
func (s DocumentStatus) Hebrew() string {
	switch s {
	case DocumentStatusDraft:
		return "טיוטה"
	case DocumentStatusCompleted:
		return "הושלם"
	case DocumentStatusSigned:
		return "חתום"
	case DocumentStatusExported:
		return "יוצא"
	case DocumentStatusArchived:
		return "בארכיון"
	}
	return string(s)
}

// FieldValues maps field name to the raw stored value: string, float64,
// []string (multi-choice) or an ISO-8601 date string. Values for names not
// present in the referenced template are inert and ignored by assembly.
type FieldValues map[string]interface{}

func (v FieldValues) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field values: %w", err)
	}
	return string(data), nil
}

func (v *FieldValues) Scan(src interface{}) error {
	if src == nil {
		*v = nil
		return nil
	}
	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported field values type %T", src)
	}
	return json.Unmarshal(data, v)
}

// DisplaySettings are presentational flags for preview and export. Nil means
// everything is shown.
type DisplaySettings struct {
	ShowPatientDetails *bool `json:"show_patient_details,omitempty"`
	ShowContactDetails *bool `json:"show_contact_details,omitempty"`
}

// PatientDetailsVisible reports whether the patient identity block is shown.
// Defaults to true when unset.
func (s *DisplaySettings) PatientDetailsVisible() bool {
	if s == nil || s.ShowPatientDetails == nil {
		return true
	}
	return *s.ShowPatientDetails
}

// ContactDetailsVisible reports whether the contact block is shown.
// Defaults to true when unset.
func (s *DisplaySettings) ContactDetailsVisible() bool {
	if s == nil || s.ShowContactDetails == nil {
		return true
	}
	return *s.ShowContactDetails
}

func (s DisplaySettings) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal display settings: %w", err)
	}
	return string(data), nil
}

func (s *DisplaySettings) Scan(src interface{}) error {
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
		return fmt.Errorf("unsupported display settings type %T", src)
	}
	return json.Unmarshal(data, s)
}

// Document is a per-patient instantiation of a template. TemplateID and
// PatientID are immutable once set.
type Document struct {
	Base
	Name            string           `json:"name" db:"name"`
	TemplateID      uuid.UUID        `json:"template_id" db:"template_id"`
	PatientID       uuid.UUID        `json:"patient_id" db:"patient_id"`
	Data            FieldValues      `json:"data" db:"data"`
	Status          DocumentStatus   `json:"status" db:"status"`
	Version         int              `json:"version" db:"version"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	ExportedAt      *time.Time       `json:"exported_at,omitempty" db:"exported_at"`
	SignedBy        *string          `json:"signed_by,omitempty" db:"signed_by"`
	SignedAt        *time.Time       `json:"signed_at,omitempty" db:"signed_at"`
	DisplaySettings *DisplaySettings `json:"display_settings,omitempty" db:"display_settings"`
}

type CreateDocumentRequest struct {
	Name       string `json:"name" binding:"required"`
	TemplateID string `json:"template_id" binding:"required,uuid"`
	PatientID  string `json:"patient_id" binding:"required,uuid"`
}

type UpdateDocumentDataRequest struct {
	Data FieldValues `json:"data" binding:"required"`
}

type UpdateDocumentStatusRequest struct {
	Status DocumentStatus `json:"status" binding:"required"`
}

type SignDocumentRequest struct {
	SignedBy string `json:"signed_by" binding:"required"`
}

type DuplicateDocumentRequest struct {
	Name string `json:"name"`
}

type UpdateDisplaySettingsRequest struct {
	ShowPatientDetails *bool `json:"show_patient_details"`
	ShowContactDetails *bool `json:"show_contact_details"`
}

type DocumentFilters struct {
	PatientID  uuid.UUID      `form:"patient_id"`
	TemplateID uuid.UUID      `form:"template_id"`
	Status     DocumentStatus `form:"status"`
	SearchTerm string         `form:"search_term"`
}
