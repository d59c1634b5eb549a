package export

import (
	"strings"
	"time"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

var hyphens = strings.NewReplacer(" ", "-")

// PatientFileName builds `{first}-{last}-{date}.docx` with spaces replaced
// by hyphens.
func PatientFileName(patient *model.Patient, on time.Time) string {
	name := hyphens.Replace(strings.TrimSpace(patient.FirstName + "-" + patient.LastName))
	return name + "-" + on.Format("2006-01-02") + ".docx"
}

// DocumentFileName builds `{first}-{last}-{title}-{date}.docx`.
func DocumentFileName(patient *model.Patient, document *model.Document, on time.Time) string {
	name := hyphens.Replace(strings.TrimSpace(patient.FirstName + "-" + patient.LastName))
	title := hyphens.Replace(strings.TrimSpace(document.Name))
	return name + "-" + title + "-" + on.Format("2006-01-02") + ".docx"
}
