package model

// FieldType is the closed set of template field kinds. Formatting, auto-fill
// and placeholder resolution all dispatch on this type, so adding a new kind
// means touching internal/docgen as well.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeNumber    FieldType = "number"
	FieldTypeDate      FieldType = "date"
	FieldTypeTime      FieldType = "time"
	FieldTypeDatetime  FieldType = "datetime"
	FieldTypeSelect    FieldType = "select"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRating    FieldType = "rating"
	FieldTypeSignature FieldType = "signature"

	// FieldTypePatientInfo is auto-filled from the patient record,
	// never typed by the user. PatientField names the source attribute.
	FieldTypePatientInfo FieldType = "patient_info"

	// Structural markers carry no value.
	FieldTypeDivider FieldType = "divider"
	FieldTypeHeader  FieldType = "header"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate,
		FieldTypeTime, FieldTypeDatetime, FieldTypeSelect, FieldTypeRadio,
		FieldTypeCheckbox, FieldTypeRating, FieldTypeSignature,
		FieldTypePatientInfo, FieldTypeDivider, FieldTypeHeader:
		return true
	}
	return false
}

// Structural reports whether the field is a layout marker without a value.
func (t FieldType) Structural() bool {
	return t == FieldTypeDivider || t == FieldTypeHeader
}

// Patient source attributes recognised by the auto-fill deriver. Any other
// PatientField value is resolved by direct lookup on the patient record.
const (
	PatientFieldFullName = "full_name"
	PatientFieldAge      = "age"
	PatientFieldAddress  = "address"
)

// FieldOption is one selectable choice of a select/radio/checkbox field.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TemplateField is one named, typed input slot within a template.
type TemplateField struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Label        string        `json:"label"`
	Type         FieldType     `json:"type"`
	Required     bool          `json:"required"`
	Placeholder  string        `json:"placeholder,omitempty"`
	HelpText     string        `json:"help_text,omitempty"`
	Options      []FieldOption `json:"options,omitempty"`
	PatientField string        `json:"patient_field,omitempty"`
	DefaultValue interface{}   `json:"default_value,omitempty"`
	Order        int           `json:"order"`
}
