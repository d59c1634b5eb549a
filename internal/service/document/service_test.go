package document

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	"github.com/physiodoc/physiodoc-api/internal/repository/memory"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
	"github.com/physiodoc/physiodoc-api/pkg/logger"
)

type fixture struct {
	svc       Service
	documents repository.DocumentRepository
	templates repository.TemplateRepository
	patients  repository.PatientRepository
	outbox    repository.OutboxRepository
	template  *model.Template
	patient   *model.Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		documents: memory.NewDocumentRepository(),
		templates: memory.NewTemplateRepository(),
		patients:  memory.NewPatientRepository(),
		outbox:    memory.NewOutboxRepository(),
	}
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	f.svc = NewService(f.documents, f.templates, f.patients, f.outbox, log)

	birth := time.Date(1985, 3, 2, 0, 0, 0, 0, time.UTC)
	f.patient = &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		FirstName: "דנה",
		LastName:  "כהן",
		IDNumber:  "304859123",
		Phone:     "050-7654321",
		BirthDate: &birth,
	}
	require.NoError(t, f.patients.Create(context.Background(), f.patient))

	f.template = &model.Template{
		Base:     model.Base{ID: uuid.New()},
		Name:     "הערכה ראשונית",
		Category: model.TemplateCategoryAssessment,
		Version:  1,
		IsActive: true,
		Fields: model.FieldList{
			{Name: "patientName", Label: "שם המטופל", Type: model.FieldTypePatientInfo, PatientField: model.PatientFieldFullName, Order: 1},
			{Name: "complaint", Label: "תלונה עיקרית", Type: model.FieldTypeTextarea, Required: true, Order: 2},
			{Name: "painLevel", Label: "רמת כאב", Type: model.FieldTypeRating, Order: 3},
		},
		Content: "המטופל {{patientName}} מתלונן על: {{complaint}}",
	}
	require.NoError(t, f.templates.Create(context.Background(), f.template))

	return f
}

func (f *fixture) create(t *testing.T) *model.Document {
	t.Helper()
	doc, err := f.svc.CreateDocument(context.Background(), &model.CreateDocumentRequest{
		Name:       "ביקור ראשון",
		TemplateID: f.template.ID.String(),
		PatientID:  f.patient.ID.String(),
	})
	require.NoError(t, err)
	return doc
}

func TestCreateDocumentSnapshotsAutoFill(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	assert.Equal(t, model.DocumentStatusDraft, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "דנה כהן", doc.Data["patientName"])
	_, hasComplaint := doc.Data["complaint"]
	assert.False(t, hasComplaint)
}

func TestCreateDocumentIncrementsTemplateUsage(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)

	template, err := f.templates.Get(context.Background(), f.template.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, template.UsageCount)
}

func TestCreateDocumentRecordsOutboxEvent(t *testing.T) {
	f := newFixture(t)
	f.create(t)

	events, err := f.outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventDocumentCreated, events[0].EventType)
}

func TestCreateDocumentInactiveTemplate(t *testing.T) {
	f := newFixture(t)
	f.template.IsActive = false
	require.NoError(t, f.templates.Update(context.Background(), f.template))

	_, err := f.svc.CreateDocument(context.Background(), &model.CreateDocumentRequest{
		Name:       "ביקור",
		TemplateID: f.template.ID.String(),
		PatientID:  f.patient.ID.String(),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestCreateDocumentUnknownTemplate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateDocument(context.Background(), &model.CreateDocumentRequest{
		Name:       "ביקור",
		TemplateID: uuid.NewString(),
		PatientID:  f.patient.ID.String(),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUpdateDocumentDataMergesAndBumpsVersion(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	updated, err := f.svc.UpdateDocumentData(context.Background(), doc.ID, &model.UpdateDocumentDataRequest{
		Data: model.FieldValues{"complaint": "כאב גב תחתון"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "כאב גב תחתון", updated.Data["complaint"])
	assert.Equal(t, "דנה כהן", updated.Data["patientName"], "merge keeps untouched keys")
}

func TestUpdateDocumentStatusCompleted(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	updated, err := f.svc.UpdateDocumentStatus(context.Background(), doc.ID, &model.UpdateDocumentStatusRequest{
		Status: model.DocumentStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestUpdateDocumentStatusExported(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	updated, err := f.svc.UpdateDocumentStatus(context.Background(), doc.ID, &model.UpdateDocumentStatusRequest{
		Status: model.DocumentStatusExported,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusExported, updated.Status)
	require.NotNil(t, updated.ExportedAt)

	// The stamp is written once; a repeated transition keeps the original.
	first := *updated.ExportedAt
	again, err := f.svc.UpdateDocumentStatus(context.Background(), doc.ID, &model.UpdateDocumentStatusRequest{
		Status: model.DocumentStatusExported,
	})
	require.NoError(t, err)
	require.NotNil(t, again.ExportedAt)
	assert.Equal(t, first, *again.ExportedAt)
}

func TestUpdateDocumentStatusRejectsUnknown(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	_, err := f.svc.UpdateDocumentStatus(context.Background(), doc.ID, &model.UpdateDocumentStatusRequest{
		Status: "published",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestSignDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	signed, err := f.svc.SignDocument(context.Background(), doc.ID, &model.SignDocumentRequest{SignedBy: "רוני פיזיותרפיסט"})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusSigned, signed.Status)
	require.NotNil(t, signed.SignedBy)
	assert.Equal(t, "רוני פיזיותרפיסט", *signed.SignedBy)
	assert.NotNil(t, signed.SignedAt)

	_, err = f.svc.SignDocument(context.Background(), doc.ID, &model.SignDocumentRequest{SignedBy: "אחר"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestDuplicateDocumentResetsLifecycle(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	_, err := f.svc.UpdateDocumentData(context.Background(), doc.ID, &model.UpdateDocumentDataRequest{
		Data: model.FieldValues{"complaint": "כאב צוואר"},
	})
	require.NoError(t, err)
	_, err = f.svc.SignDocument(context.Background(), doc.ID, &model.SignDocumentRequest{SignedBy: "רוני"})
	require.NoError(t, err)

	dup, err := f.svc.DuplicateDocument(context.Background(), doc.ID, &model.DuplicateDocumentRequest{})
	require.NoError(t, err)

	assert.Equal(t, "העתק של ביקור ראשון", dup.Name)
	assert.Equal(t, model.DocumentStatusDraft, dup.Status)
	assert.Equal(t, 1, dup.Version)
	assert.Nil(t, dup.SignedBy)
	assert.Nil(t, dup.SignedAt)
	assert.Nil(t, dup.ExportedAt)
	assert.Equal(t, "כאב צוואר", dup.Data["complaint"])
}

func TestDuplicateDocumentPreviewMatchesSource(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)
	_, err := f.svc.UpdateDocumentData(context.Background(), doc.ID, &model.UpdateDocumentDataRequest{
		Data: model.FieldValues{"complaint": "כאב ברך", "painLevel": float64(7)},
	})
	require.NoError(t, err)

	dup, err := f.svc.DuplicateDocument(context.Background(), doc.ID, &model.DuplicateDocumentRequest{Name: "עותק"})
	require.NoError(t, err)

	src, err := f.svc.PreviewDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	dupPreview, err := f.svc.PreviewDocument(context.Background(), dup.ID)
	require.NoError(t, err)

	assert.Equal(t, src.ResolvedBody, dupPreview.ResolvedBody)
	assert.Equal(t, src.Stats, dupPreview.Stats)
	assert.Equal(t, src.PopulatedFields, dupPreview.PopulatedFields)
}

func TestPreviewStoredValueBeatsDerived(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	_, err := f.svc.UpdateDocumentData(context.Background(), doc.ID, &model.UpdateDocumentDataRequest{
		Data: model.FieldValues{"patientName": "שם שהוקלד ידנית"},
	})
	require.NoError(t, err)

	f.patient.FirstName = "שם"
	f.patient.LastName = "חדש"
	require.NoError(t, f.patients.Update(context.Background(), f.patient))

	preview, err := f.svc.PreviewDocument(context.Background(), doc.ID)
	require.NoError(t, err)

	var formatted string
	for _, pf := range preview.PopulatedFields {
		if pf.Field.Name == "patientName" {
			formatted = pf.FormattedValue
		}
	}
	assert.Equal(t, "שם שהוקלד ידנית", formatted, "snapshot wins over fresh derivation")
	assert.NotContains(t, preview.ResolvedBody, "{{")
}

func TestUpdateDisplaySettings(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	hide := false
	updated, err := f.svc.UpdateDisplaySettings(context.Background(), doc.ID, &model.UpdateDisplaySettingsRequest{
		ShowPatientDetails: &hide,
	})
	require.NoError(t, err)
	assert.False(t, updated.DisplaySettings.PatientDetailsVisible())
	assert.True(t, updated.DisplaySettings.ContactDetailsVisible(), "untouched flag keeps default")
}

func TestDeleteDocumentEmitsEvent(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t)

	require.NoError(t, f.svc.DeleteDocument(context.Background(), doc.ID))

	_, err := f.svc.GetDocument(context.Background(), doc.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	events, err := f.outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.Contains(t, types, model.EventDocumentDeleted)
}
