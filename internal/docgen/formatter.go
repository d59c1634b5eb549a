package docgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// Blank markers. Export output renders a writable underscore run, the
// interactive preview a localized "not filled" label. Callers pick one.
const (
	BlankMarkerExport  = "_____________________________"
	BlankMarkerPreview = "לא מולא"

	// InvalidDateMarker replaces values a date-typed field cannot parse.
	InvalidDateMarker = "תאריך לא תקין"

	// SignatureMarker is rendered for signature fields regardless of the
	// stored value.
	SignatureMarker = "חתום דיגיטלית ✍️"
)

// Date layouts accepted for stored date/datetime/time values. Form input
// arrives as ISO-8601 strings; already-parsed time.Time values are accepted
// too.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// IsBlank reports whether a raw field value counts as unfilled: absent, nil,
// an empty or whitespace-only string, or an empty list.
func IsBlank(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	}
	return false
}

// FormatValue renders a raw stored value into display text for the given
// field. Blank values yield blankMarker. The function is pure: the clock is
// never consulted, so equal inputs always produce equal output.
func FormatValue(field model.TemplateField, raw interface{}, blankMarker string) string {
	if IsBlank(raw) {
		return blankMarker
	}

	switch field.Type {
	case model.FieldTypeDate:
		return formatDate(raw, "02/01/2006")
	case model.FieldTypeDatetime:
		return formatDate(raw, "02/01/2006 15:04")
	case model.FieldTypeTime:
		return formatTime(raw)
	case model.FieldTypeCheckbox:
		if joined, ok := joinList(raw); ok {
			return joined
		}
		// Defensive: a scalar stored on a multi-choice field passes through.
		return stringify(raw)
	case model.FieldTypeSignature:
		return SignatureMarker
	case model.FieldTypePatientInfo:
		// Already resolved by the auto-fill deriver.
		return stringify(raw)
	default:
		return stringify(raw)
	}
}

func formatDate(raw interface{}, layout string) string {
	if t, ok := raw.(time.Time); ok {
		return t.Format(layout)
	}
	s := stringify(raw)
	for _, in := range dateLayouts {
		if t, err := time.Parse(in, s); err == nil {
			return t.Format(layout)
		}
	}
	return InvalidDateMarker
}

func formatTime(raw interface{}) string {
	if t, ok := raw.(time.Time); ok {
		return t.Format("15:04")
	}
	s := stringify(raw)
	for _, in := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(in, s); err == nil {
			return t.Format("15:04")
		}
	}
	for _, in := range dateLayouts {
		if t, err := time.Parse(in, s); err == nil {
			return t.Format("15:04")
		}
	}
	return InvalidDateMarker
}

func joinList(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case []string:
		return strings.Join(v, ", "), true
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; keep integers undecorated.
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
