package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

type TemplateCategory string

const (
	TemplateCategoryAssessment  TemplateCategory = "assessment"
	TemplateCategoryTreatment   TemplateCategory = "treatment"
	TemplateCategoryProgress    TemplateCategory = "progress"
	TemplateCategoryDischarge   TemplateCategory = "discharge"
	TemplateCategoryExercise    TemplateCategory = "exercise"
	TemplateCategoryReferral    TemplateCategory = "referral"
	TemplateCategoryCertificate TemplateCategory = "certificate"
	TemplateCategoryInvoice     TemplateCategory = "invoice"
	TemplateCategoryInsurance   TemplateCategory = "insurance"
	TemplateCategoryCustom      TemplateCategory = "custom"
)

// FieldList is the ordered field set of a template, stored as a JSONB column.
type FieldList []TemplateField

func (l FieldList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field list: %w", err)
	}
	return string(data), nil
}

func (l *FieldList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported field list type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Sorted returns the fields ordered by their Order attribute. Ties keep
// insertion order so templates with duplicated order values stay stable.
func (l FieldList) Sorted() []TemplateField {
	out := make([]TemplateField, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Template is a reusable document blueprint: an ordered field list plus a
// free-text body with {{fieldName}} placeholders.
type Template struct {
	Base
	Name        string           `json:"name" db:"name"`
	Description string           `json:"description" db:"description"`
	Category    TemplateCategory `json:"category" db:"category"`
	Version     int              `json:"version" db:"version"`
	Fields      FieldList        `json:"fields" db:"fields"`
	Content     string           `json:"content" db:"content"`
	IsActive    bool             `json:"is_active" db:"is_active"`
	UsageCount  int              `json:"usage_count" db:"usage_count"`
	AuthorName  string           `json:"author_name,omitempty" db:"author_name"`
}

type CreateTemplateRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Category    TemplateCategory `json:"category" binding:"required"`
	Fields      []TemplateField  `json:"fields"`
	Content     string           `json:"content"`
	AuthorName  string           `json:"author_name"`
}

type UpdateTemplateRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Category    *TemplateCategory `json:"category"`
	Fields      []TemplateField   `json:"fields"`
	Content     *string           `json:"content"`
	IsActive    *bool             `json:"is_active"`
}

type DuplicateTemplateRequest struct {
	Name string `json:"name"`
}

type TemplateFilters struct {
	Category   TemplateCategory `form:"category"`
	ActiveOnly bool             `form:"active_only"`
	SearchTerm string           `form:"search_term"`
}
