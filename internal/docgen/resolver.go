package docgen

import (
	"regexp"
	"strings"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// PatientNamePlaceholder is the reserved token resolved from the patient
// record rather than from a field.
const PatientNamePlaceholder = "{{patientName}}"

// unknownNameFallback substitutes for the reserved patient-name token when
// the record has no usable name.
const unknownNameFallback = "שם לא זמין"

// placeholderPattern matches a single {{...}} token. The body never contains
// '}' so two adjacent placeholders cannot merge across lines.
var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// ResolvePlaceholders substitutes every {{name}} token in a template body.
// Known field names resolve to the export-formatted value or the export blank
// marker; any leftover token (typo, removed field) also becomes the blank
// marker, so the output never contains a placeholder. Tokens are replaced as
// full literals, so a field name that prefixes another field name cannot
// cause partial replacement.
func ResolvePlaceholders(body string, fields []model.TemplateField, values model.FieldValues, patientName string) string {
	resolved := strings.ReplaceAll(body, "\r\n", "\n")
	resolved = strings.ReplaceAll(resolved, "\r", "\n")

	if strings.TrimSpace(patientName) == "" {
		patientName = unknownNameFallback
	}
	resolved = strings.ReplaceAll(resolved, PatientNamePlaceholder, patientName)

	for _, field := range fields {
		token := "{{" + field.Name + "}}"
		if !strings.Contains(resolved, token) {
			continue
		}
		replacement := BlankMarkerExport
		if raw, ok := values[field.Name]; ok && !IsBlank(raw) {
			replacement = FormatValue(field, raw, BlankMarkerExport)
		}
		resolved = strings.ReplaceAll(resolved, token, replacement)
	}

	return placeholderPattern.ReplaceAllString(resolved, BlankMarkerExport)
}
