package docgen

import (
	"time"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// PopulatedField is one non-blank field of an assembled document, formatted
// for display.
type PopulatedField struct {
	Field          model.TemplateField `json:"field"`
	FormattedValue string              `json:"formatted_value"`
}

// CompletionStats counts required fields and how many hold a non-blank
// resolved value. The percentage is left to callers.
type CompletionStats struct {
	RequiredTotal  int `json:"required_total"`
	RequiredFilled int `json:"required_filled"`
}

// AssembledDocument is the pure projection of template + patient + document:
// ready for on-screen preview and consumed as-is by the export serializer.
type AssembledDocument struct {
	PopulatedFields []PopulatedField `json:"populated_fields"`
	ResolvedBody    string           `json:"resolved_body"`
	Stats           CompletionStats  `json:"completion_stats"`
	PatientName     string           `json:"patient_name"`
}

// Assembler combines templates, patients and documents. It holds no state
// beyond the deriver's clock and performs no writes: auto-filled values are
// never persisted back into the document here.
type Assembler struct {
	deriver     *Deriver
	blankMarker string
}

func NewAssembler() *Assembler {
	return &Assembler{deriver: NewDeriver(), blankMarker: BlankMarkerPreview}
}

// NewAssemblerWithClock builds an assembler with a frozen clock, for tests.
func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{deriver: NewDeriverWithClock(now), blankMarker: BlankMarkerPreview}
}

// resolveField applies the precedence rule: a non-blank stored value wins
// over a fresh derivation, even if the patient record changed since the
// value was written.
func (a *Assembler) resolveField(field model.TemplateField, data model.FieldValues, patient *model.Patient) (interface{}, bool) {
	if raw, ok := data[field.Name]; ok && !IsBlank(raw) {
		return raw, true
	}
	if field.Type == model.FieldTypePatientInfo {
		if derived, ok := a.deriver.Derive(field, patient); ok {
			return derived, true
		}
	}
	return nil, false
}

// Assemble produces the preview structure and the resolved body for one
// document. Malformed individual values degrade to markers inside the
// formatted output; Assemble itself never fails.
func (a *Assembler) Assemble(template *model.Template, patient *model.Patient, document *model.Document) *AssembledDocument {
	fields := template.Fields.Sorted()
	data := document.Data
	if data == nil {
		data = model.FieldValues{}
	}

	var patientName string
	if patient != nil {
		patientName = patient.FullName()
	}

	assembled := &AssembledDocument{PatientName: patientName}
	merged := make(model.FieldValues, len(fields))

	for _, field := range fields {
		if field.Type.Structural() {
			continue
		}

		raw, ok := a.resolveField(field, data, patient)
		if field.Required {
			assembled.Stats.RequiredTotal++
			if ok {
				assembled.Stats.RequiredFilled++
			}
		}
		if !ok {
			continue
		}

		merged[field.Name] = raw
		assembled.PopulatedFields = append(assembled.PopulatedFields, PopulatedField{
			Field:          field,
			FormattedValue: FormatValue(field, raw, a.blankMarker),
		})
	}

	assembled.ResolvedBody = ResolvePlaceholders(template.Content, fields, merged, patientName)
	return assembled
}

// AutoFillValues computes the one-time patient_info write performed at
// document creation. Only derivable fields appear in the result.
func (a *Assembler) AutoFillValues(template *model.Template, patient *model.Patient) model.FieldValues {
	values := model.FieldValues{}
	for _, field := range template.Fields {
		if field.Type != model.FieldTypePatientInfo {
			continue
		}
		if derived, ok := a.deriver.Derive(field, patient); ok {
			values[field.Name] = derived
		}
	}
	return values
}
