// Package export serializes assembled documents into downloadable DOCX
// artifacts. All Hebrew content is emitted with explicit right-to-left
// paragraph layout, which the output format requires.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/physiodoc/physiodoc-api/internal/docgen"
	"github.com/physiodoc/physiodoc-api/internal/export/docx"
	"github.com/physiodoc/physiodoc-api/internal/model"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

const (
	exportFont = "Arial"

	titleSize   = 32 // half-points
	headingSize = 24
	bodySize    = 22
	metaSize    = 20
	footerSize  = 16

	headingColor = "365F91"
	titleColor   = "2E74B5"
	metaColor    = "666666"
)

// Serializer converts an assembled document into the export artifact. The
// clock is injectable for deterministic footers in tests.
type Serializer struct {
	deriver *docgen.Deriver
	now     func() time.Time
}

func NewSerializer() *Serializer {
	return &Serializer{deriver: docgen.NewDeriver(), now: time.Now}
}

func NewSerializerWithClock(now func() time.Time) *Serializer {
	return &Serializer{deriver: docgen.NewDeriverWithClock(now), now: now}
}

// Serialize builds the DOCX byte stream for one document. A missing patient
// or template fails fast before any packing starts; packing failures are
// re-classified as the single export-failure category with the cause kept
// for diagnostics.
func (s *Serializer) Serialize(
	assembled *docgen.AssembledDocument,
	document *model.Document,
	template *model.Template,
	patient *model.Patient,
	settings *model.DisplaySettings,
) ([]byte, error) {
	if patient == nil {
		return nil, apperrors.ExportFailed(fmt.Errorf("patient record is missing"))
	}
	if template == nil {
		return nil, apperrors.ExportFailed(fmt.Errorf("template record is missing"))
	}
	if document == nil {
		return nil, apperrors.ExportFailed(fmt.Errorf("document record is missing"))
	}
	if assembled == nil {
		return nil, apperrors.ExportFailed(fmt.Errorf("assembled document is missing"))
	}

	doc := docx.NewDocument(exportFont)

	s.writeTitle(doc, document, template)
	if settings.PatientDetailsVisible() {
		s.writePatientDetails(doc, patient, settings.ContactDetailsVisible())
	}
	s.writeMetadata(doc, document)
	s.writeFields(doc, assembled)
	s.writeSignatureBlock(doc)
	s.writeFooter(doc, document)

	var buf bytes.Buffer
	if err := doc.Pack(&buf); err != nil {
		return nil, apperrors.ExportFailed(err)
	}
	return buf.Bytes(), nil
}

// SerializePatientSummary builds a standalone DOCX summarizing one patient:
// demographics, medical history and the list of documents on file. Contact
// details are always included, this artifact is for the treating clinician.
func (s *Serializer) SerializePatientSummary(patient *model.Patient, documents []*model.Document) ([]byte, error) {
	if patient == nil {
		return nil, apperrors.ExportFailed(fmt.Errorf("patient record is missing"))
	}

	doc := docx.NewDocument(exportFont)

	title := doc.AddParagraph()
	title.Bidi = true
	title.Align = docx.AlignCenter
	title.SpacingAfter = 400
	title.AddRun(docx.Run{Text: "סיכום מטופל: " + patient.FullName(), Bold: true, Size: titleSize, Color: titleColor, RTL: true})

	s.writePatientDetails(doc, patient, true)
	s.writeMedicalHistory(doc, patient.MedicalHistory)
	s.writeDocumentList(doc, documents)

	footer := rtlParagraph(doc)
	footer.SpacingBefore = 400
	footer.AddRun(docx.Run{
		Text:  "הופק: " + s.now().Format("02/01/2006 15:04"),
		Size:  footerSize,
		Color: metaColor,
		RTL:   true,
	})

	var buf bytes.Buffer
	if err := doc.Pack(&buf); err != nil {
		return nil, apperrors.ExportFailed(err)
	}
	return buf.Bytes(), nil
}

func (s *Serializer) writeMedicalHistory(doc *docx.Document, history model.MedicalHistory) {
	heading := rtlParagraph(doc)
	heading.SpacingBefore = 300
	heading.SpacingAfter = 180
	heading.AddRun(docx.Run{Text: "היסטוריה רפואית", Bold: true, Size: headingSize, Color: headingColor, RTL: true})

	if len(history) == 0 {
		empty := rtlParagraph(doc)
		empty.SpacingAfter = 120
		empty.AddRun(docx.Run{Text: "אין רשומות", Size: bodySize, Color: metaColor, RTL: true})
		return
	}

	for _, record := range history {
		entry := rtlParagraph(doc)
		entry.SpacingAfter = 60
		entry.AddRun(docx.Run{Text: formatHebrewDate(record.Date) + " - ", Bold: true, Size: bodySize, Color: headingColor, RTL: true})
		entry.AddRun(docx.Run{Text: record.Diagnosis, Size: bodySize, RTL: true})

		treatment := rtlParagraph(doc)
		treatment.SpacingAfter = 60
		labelValue(treatment, "טיפול", record.Treatment)

		if record.Notes != "" {
			notes := rtlParagraph(doc)
			notes.SpacingAfter = 60
			labelValue(notes, "הערות", record.Notes)
		}

		spacer := rtlParagraph(doc)
		spacer.SpacingAfter = 120
		spacer.AddRun(docx.Run{Text: " ", Size: bodySize, RTL: true})
	}
}

func (s *Serializer) writeDocumentList(doc *docx.Document, documents []*model.Document) {
	heading := rtlParagraph(doc)
	heading.SpacingBefore = 300
	heading.SpacingAfter = 180
	heading.AddRun(docx.Run{Text: "מסמכים", Bold: true, Size: headingSize, Color: headingColor, RTL: true})

	if len(documents) == 0 {
		empty := rtlParagraph(doc)
		empty.SpacingAfter = 120
		empty.AddRun(docx.Run{Text: "אין מסמכים", Size: bodySize, Color: metaColor, RTL: true})
		return
	}

	for _, document := range documents {
		p := rtlParagraph(doc)
		p.SpacingAfter = 120
		p.AddRun(docx.Run{Text: document.Name, Bold: true, Size: bodySize, RTL: true})
		p.AddRun(docx.Run{
			Text:  fmt.Sprintf(" (%s, עודכן %s)", document.Status.Hebrew(), formatHebrewDate(document.UpdatedAt)),
			Size:  bodySize,
			Color: metaColor,
			RTL:   true,
		})
	}
}

func rtlParagraph(doc *docx.Document) *docx.Paragraph {
	p := doc.AddParagraph()
	p.Bidi = true
	p.Align = docx.AlignRight
	return p
}

func labelValue(p *docx.Paragraph, label, value string) {
	p.AddRun(docx.Run{Text: label + ": ", Bold: true, Size: bodySize, Color: headingColor, RTL: true})
	p.AddRun(docx.Run{Text: value, Size: bodySize, RTL: true})
}

func (s *Serializer) writeTitle(doc *docx.Document, document *model.Document, template *model.Template) {
	title := doc.AddParagraph()
	title.Bidi = true
	title.Align = docx.AlignCenter
	title.SpacingAfter = 200
	title.AddRun(docx.Run{Text: document.Name, Bold: true, Size: titleSize, Color: titleColor, RTL: true})

	subtitle := doc.AddParagraph()
	subtitle.Bidi = true
	subtitle.Align = docx.AlignCenter
	subtitle.SpacingAfter = 400
	subtitle.AddRun(docx.Run{Text: template.Name, Size: headingSize, Color: metaColor, RTL: true})
}

func (s *Serializer) writePatientDetails(doc *docx.Document, patient *model.Patient, contactVisible bool) {
	heading := rtlParagraph(doc)
	heading.SpacingBefore = 240
	heading.SpacingAfter = 180
	heading.AddRun(docx.Run{Text: "פרטי המטופל", Bold: true, Size: headingSize, Color: headingColor, RTL: true})

	name := rtlParagraph(doc)
	name.SpacingAfter = 120
	labelValue(name, "שם מלא", patient.FullName())

	idNumber := rtlParagraph(doc)
	idNumber.SpacingAfter = 120
	labelValue(idNumber, "תעודת זהות", patient.IDNumber)

	age := rtlParagraph(doc)
	age.SpacingAfter = 120
	ageText := "לא ידוע"
	if patient.BirthDate != nil && !patient.BirthDate.IsZero() {
		ageText = strconv.Itoa(s.deriver.AgeYears(*patient.BirthDate))
	}
	labelValue(age, "גיל", ageText)

	if !contactVisible {
		return
	}

	phone := rtlParagraph(doc)
	phone.SpacingAfter = 120
	labelValue(phone, "טלפון", patient.Phone)

	if patient.Email != nil && *patient.Email != "" {
		email := rtlParagraph(doc)
		email.SpacingAfter = 120
		labelValue(email, "אימייל", *patient.Email)
	}

	if patient.Address != nil {
		address := rtlParagraph(doc)
		address.SpacingAfter = 120
		labelValue(address, "כתובת", formatAddress(patient.Address))
	}
}

func formatAddress(a *model.Address) string {
	parts := []string{a.Street, a.City}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	return strings.Join(parts, ", ")
}

func (s *Serializer) writeMetadata(doc *docx.Document, document *model.Document) {
	created := rtlParagraph(doc)
	created.SpacingBefore = 300
	created.SpacingAfter = 120
	created.AddRun(docx.Run{Text: "תאריך יצירה: ", Bold: true, Size: metaSize, Color: headingColor, RTL: true})
	created.AddRun(docx.Run{Text: formatHebrewDate(document.CreatedAt), Size: metaSize, Color: metaColor, RTL: true})

	updated := rtlParagraph(doc)
	updated.SpacingAfter = 120
	updated.AddRun(docx.Run{Text: "עדכון אחרון: ", Bold: true, Size: metaSize, Color: headingColor, RTL: true})
	updated.AddRun(docx.Run{Text: formatHebrewDate(document.UpdatedAt), Size: metaSize, Color: metaColor, RTL: true})

	version := rtlParagraph(doc)
	version.SpacingAfter = 240
	version.AddRun(docx.Run{Text: "גרסה: ", Bold: true, Size: metaSize, Color: headingColor, RTL: true})
	version.AddRun(docx.Run{Text: strconv.Itoa(document.Version), Size: metaSize, Color: metaColor, RTL: true})
}

func formatHebrewDate(t time.Time) string {
	if t.IsZero() {
		return "לא זמין"
	}
	return t.Format("02/01/2006")
}

// writeFields renders the populated-field list. Values with embedded line
// breaks become separate paragraphs under a standalone label rather than one
// collapsed line.
func (s *Serializer) writeFields(doc *docx.Document, assembled *docgen.AssembledDocument) {
	for _, pf := range assembled.PopulatedFields {
		value := pf.FormattedValue

		if strings.Contains(value, "\n") {
			label := rtlParagraph(doc)
			label.SpacingAfter = 60
			label.AddRun(docx.Run{Text: pf.Field.Label + ":", Bold: true, Size: bodySize, Color: headingColor, RTL: true})

			for _, line := range strings.Split(value, "\n") {
				p := rtlParagraph(doc)
				p.SpacingAfter = 60
				text := strings.TrimSpace(line)
				if text == "" {
					text = " "
				}
				p.AddRun(docx.Run{Text: text, Size: bodySize, RTL: true})
			}

			spacer := rtlParagraph(doc)
			spacer.SpacingAfter = 120
			spacer.AddRun(docx.Run{Text: " ", Size: bodySize, RTL: true})
			continue
		}

		p := rtlParagraph(doc)
		p.SpacingAfter = 120
		labelValue(p, pf.Field.Label, value)
	}
}

func (s *Serializer) writeSignatureBlock(doc *docx.Document) {
	spacer := doc.AddParagraph()
	spacer.SpacingBefore = 800
	spacer.AddRun(docx.Run{Text: " ", Size: bodySize})

	line := rtlParagraph(doc)
	line.SpacingAfter = 300
	line.AddRun(docx.Run{Text: "תאריך: _______________     ", Size: bodySize, RTL: true})
	line.AddRun(docx.Run{Text: "חתימת המטפל: _______________", Size: bodySize, RTL: true})
}

// writeFooter emits a truncated document identifier and the rendering
// timestamp.
func (s *Serializer) writeFooter(doc *docx.Document, document *model.Document) {
	id := document.ID.String()
	if len(id) > 8 {
		id = id[len(id)-8:]
	}

	footer := rtlParagraph(doc)
	footer.SpacingBefore = 400
	footer.AddRun(docx.Run{
		Text:  fmt.Sprintf("מזהה מסמך: %s | הופק: %s", id, s.now().Format("02/01/2006 15:04")),
		Size:  footerSize,
		Color: metaColor,
		RTL:   true,
	})
}
