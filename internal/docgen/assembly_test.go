package docgen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

func frozenAssembler() *Assembler {
	return NewAssemblerWithClock(func() time.Time {
		return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	})
}

func assessmentTemplate() *model.Template {
	return &model.Template{
		Base: model.Base{ID: uuid.New()},
		Name: "הערכה ראשונית",
		Fields: model.FieldList{
			{ID: "1", Name: "patientName", Label: "שם המטופל", Type: model.FieldTypePatientInfo, PatientField: model.PatientFieldFullName, Required: true, Order: 1},
			{ID: "2", Name: "mainComplaint", Label: "תלונה עיקרית", Type: model.FieldTypeTextarea, Required: true, Order: 2},
			{ID: "3", Name: "painLevel", Label: "רמת כאב", Type: model.FieldTypeNumber, Required: true, Order: 3},
			{ID: "4", Name: "notes", Label: "הערות", Type: model.FieldTypeTextarea, Order: 4},
			{ID: "5", Name: "sectionBreak", Label: "", Type: model.FieldTypeDivider, Order: 5},
		},
		Content:  "שם: {{patientName}}\nתלונה: {{mainComplaint}}\nכאב: {{painLevel}}/10",
		IsActive: true,
	}
}

func draftDocument(tpl *model.Template, patient *model.Patient, data model.FieldValues) *model.Document {
	return &model.Document{
		Base:       model.Base{ID: uuid.New()},
		Name:       "מסמך בדיקה",
		TemplateID: tpl.ID,
		PatientID:  patient.ID,
		Data:       data,
		Status:     model.DocumentStatusDraft,
		Version:    1,
	}
}

func TestAssembleOrdersAndFiltersFields(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	doc := draftDocument(tpl, patient, model.FieldValues{
		"painLevel":     float64(7),
		"mainComplaint": "כאבי גב",
		"notes":         "   ", // whitespace-only: must be omitted
	})

	assembled := a.Assemble(tpl, patient, doc)

	require.Len(t, assembled.PopulatedFields, 3)
	assert.Equal(t, "patientName", assembled.PopulatedFields[0].Field.Name)
	assert.Equal(t, "mainComplaint", assembled.PopulatedFields[1].Field.Name)
	assert.Equal(t, "painLevel", assembled.PopulatedFields[2].Field.Name)

	for _, pf := range assembled.PopulatedFields {
		assert.NotEmpty(t, pf.FormattedValue)
		assert.NotEqual(t, BlankMarkerPreview, pf.FormattedValue)
	}
}

func TestAssembleAutoFillAndResolvedBody(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	doc := draftDocument(tpl, patient, model.FieldValues{
		"mainComplaint": "כאבי גב",
		"painLevel":     float64(7),
	})

	assembled := a.Assemble(tpl, patient, doc)

	assert.Equal(t, "שם: נועה לוי\nתלונה: כאבי גב\nכאב: 7/10", assembled.ResolvedBody)
	assert.NotContains(t, assembled.ResolvedBody, "{{")
}

func TestAssembleStoredValueBeatsDerived(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	// Stored value written before the patient was renamed.
	doc := draftDocument(tpl, patient, model.FieldValues{
		"patientName": "נועה כהן",
	})
	patient.LastName = "לוי-חדש"

	assembled := a.Assemble(tpl, patient, doc)

	require.NotEmpty(t, assembled.PopulatedFields)
	assert.Equal(t, "נועה כהן", assembled.PopulatedFields[0].FormattedValue)
}

func TestAssembleCompletionStats(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	// patientName auto-fills, mainComplaint set, painLevel missing.
	doc := draftDocument(tpl, patient, model.FieldValues{"mainComplaint": "כאב"})
	assembled := a.Assemble(tpl, patient, doc)

	assert.Equal(t, 3, assembled.Stats.RequiredTotal)
	assert.Equal(t, 2, assembled.Stats.RequiredFilled)
	assert.GreaterOrEqual(t, assembled.Stats.RequiredTotal, assembled.Stats.RequiredFilled)
}

func TestAssembleIgnoresValuesForUnknownFields(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	doc := draftDocument(tpl, patient, model.FieldValues{
		"mainComplaint": "כאב",
		"ghostField":    "ערך יתום",
	})

	assembled := a.Assemble(tpl, patient, doc)
	for _, pf := range assembled.PopulatedFields {
		assert.NotEqual(t, "ghostField", pf.Field.Name)
	}
}

func TestAssembleDuplicateRoundTrip(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	patient := testPatient()

	original := draftDocument(tpl, patient, model.FieldValues{
		"mainComplaint": "כאבי גב",
		"painLevel":     float64(6),
	})

	// A duplicate carries the same data under a fresh identity and draft status.
	duplicate := draftDocument(tpl, patient, original.Data)
	duplicate.Name = "העתק של " + original.Name

	first := a.Assemble(tpl, patient, original)
	second := a.Assemble(tpl, patient, duplicate)

	assert.Equal(t, first.PopulatedFields, second.PopulatedFields)
	assert.Equal(t, first.ResolvedBody, second.ResolvedBody)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestAutoFillValues(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	tpl.Fields = append(tpl.Fields, model.TemplateField{
		ID: "6", Name: "patientAge", Type: model.FieldTypePatientInfo, PatientField: model.PatientFieldAge, Order: 6,
	})
	patient := testPatient()

	values := a.AutoFillValues(tpl, patient)

	assert.Equal(t, "נועה לוי", values["patientName"])
	assert.Equal(t, "34", values["patientAge"])
	_, present := values["mainComplaint"]
	assert.False(t, present)
}

func TestAssembleNilPatient(t *testing.T) {
	a := frozenAssembler()
	tpl := assessmentTemplate()
	doc := &model.Document{Data: model.FieldValues{"mainComplaint": "כאב"}}

	assembled := a.Assemble(tpl, nil, doc)

	// patient_info fields cannot derive; the reserved token falls back.
	assert.Contains(t, assembled.ResolvedBody, "שם לא זמין")
	require.Len(t, assembled.PopulatedFields, 1)
	assert.Equal(t, "mainComplaint", assembled.PopulatedFields[0].Field.Name)
}
