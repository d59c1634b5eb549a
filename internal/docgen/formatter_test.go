package docgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

func TestFormatValueBlank(t *testing.T) {
	field := model.TemplateField{Name: "notes", Type: model.FieldTypeTextarea}

	for _, raw := range []interface{}{nil, "", "   ", "\n\t", []string{}, []interface{}{}} {
		assert.Equal(t, BlankMarkerExport, FormatValue(field, raw, BlankMarkerExport))
		assert.Equal(t, BlankMarkerPreview, FormatValue(field, raw, BlankMarkerPreview))
	}

	// Formatting an already-blank value twice yields the same marker, and
	// re-formatting the marker itself is a fixed point.
	first := FormatValue(field, nil, BlankMarkerExport)
	assert.Equal(t, first, FormatValue(field, nil, BlankMarkerExport))
	assert.Equal(t, first, FormatValue(field, first, BlankMarkerExport))
}

func TestFormatValueDate(t *testing.T) {
	field := model.TemplateField{Name: "treatmentDate", Type: model.FieldTypeDate}

	assert.Equal(t, "15/05/2024", FormatValue(field, "2024-05-15", BlankMarkerExport))
	assert.Equal(t, "15/05/2024", FormatValue(field, "2024-05-15T10:30:00Z", BlankMarkerExport))
	assert.Equal(t, "15/05/2024", FormatValue(field, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), BlankMarkerExport))
	assert.Equal(t, InvalidDateMarker, FormatValue(field, "not-a-date", BlankMarkerExport))
}

func TestFormatValueDatetimeAndTime(t *testing.T) {
	dt := model.TemplateField{Name: "sessionStart", Type: model.FieldTypeDatetime}
	assert.Equal(t, "15/05/2024 10:30", FormatValue(dt, "2024-05-15T10:30:00Z", BlankMarkerExport))

	tm := model.TemplateField{Name: "sessionTime", Type: model.FieldTypeTime}
	assert.Equal(t, "10:30", FormatValue(tm, "10:30", BlankMarkerExport))
	assert.Equal(t, InvalidDateMarker, FormatValue(tm, "later", BlankMarkerExport))
}

func TestFormatValueMultiChoice(t *testing.T) {
	field := model.TemplateField{Name: "interventions", Type: model.FieldTypeCheckbox}

	assert.Equal(t, "a, b, c", FormatValue(field, []string{"a", "b", "c"}, BlankMarkerExport))
	assert.Equal(t, "a, b", FormatValue(field, []interface{}{"a", "b"}, BlankMarkerExport))

	// Defensive: non-list value on a multi-choice field passes through.
	assert.Equal(t, "solo", FormatValue(field, "solo", BlankMarkerExport))
}

func TestFormatValueSignature(t *testing.T) {
	field := model.TemplateField{Name: "therapistSignature", Type: model.FieldTypeSignature}

	// Raw value is ignored entirely.
	assert.Equal(t, SignatureMarker, FormatValue(field, "scribble", BlankMarkerExport))
	assert.Equal(t, SignatureMarker, FormatValue(field, 12345, BlankMarkerExport))
}

func TestFormatValueDefaultStringify(t *testing.T) {
	number := model.TemplateField{Name: "painLevel", Type: model.FieldTypeNumber}
	assert.Equal(t, "7", FormatValue(number, float64(7), BlankMarkerExport))
	assert.Equal(t, "7.5", FormatValue(number, 7.5, BlankMarkerExport))

	rating := model.TemplateField{Name: "satisfaction", Type: model.FieldTypeRating}
	assert.Equal(t, "9", FormatValue(rating, 9, BlankMarkerExport))

	text := model.TemplateField{Name: "complaint", Type: model.FieldTypeText}
	assert.Equal(t, "כאבי גב", FormatValue(text, "כאבי גב", BlankMarkerExport))
}
