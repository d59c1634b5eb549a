package export

import (
	"bytes"
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
	"github.com/physiodoc/physiodoc-api/pkg/metrics"
)

type fixture struct {
	svc       *service
	documents repository.DocumentRepository
	outbox    repository.OutboxRepository
	document  *model.Document
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	documents := memory.NewDocumentRepository()
	templates := memory.NewTemplateRepository()
	patients := memory.NewPatientRepository()
	outbox := memory.NewOutboxRepository()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	svc := NewService(documents, templates, patients, outbox, log, metrics.New("test")).(*service)

	patient := &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		FirstName: "יואב",
		LastName:  "מזרחי",
		IDNumber:  "207561348",
		Phone:     "054-9988776",
	}
	require.NoError(t, patients.Create(context.Background(), patient))

	template := &model.Template{
		Base:     model.Base{ID: uuid.New()},
		Name:     "סיכום טיפול",
		Category: model.TemplateCategoryTreatment,
		Version:  1,
		IsActive: true,
		Fields: model.FieldList{
			{Name: "summary", Label: "סיכום", Type: model.FieldTypeTextarea, Required: true, Order: 1},
		},
		Content: "סיכום: {{summary}}",
	}
	require.NoError(t, templates.Create(context.Background(), template))

	document := &model.Document{
		Base:       model.Base{ID: uuid.New()},
		Name:       "טיפול שלישי",
		TemplateID: template.ID,
		PatientID:  patient.ID,
		Data:       model.FieldValues{"summary": "המשך תרגילי חיזוק"},
		Status:     model.DocumentStatusCompleted,
		Version:    2,
	}
	require.NoError(t, documents.Create(context.Background(), document))

	return &fixture{svc: svc, documents: documents, outbox: outbox, document: document}
}

func TestExportDocument(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ExportDocument(context.Background(), f.document.ID)
	require.NoError(t, err)

	assert.Equal(t, docxContentType, result.ContentType)
	assert.Contains(t, result.FileName, "יואב-מזרחי-טיפול-שלישי-")
	assert.True(t, bytes.HasPrefix(result.Data, []byte("PK")), "payload is a zip container")

	stored, err := f.documents.Get(context.Background(), f.document.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusCompleted, stored.Status, "export records the artifact but does not advance status")
	require.NotNil(t, stored.ExportedAt)

	events, err := f.outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventDocumentExported, events[0].EventType)
}

func TestExportPatientSummary(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ExportPatientSummary(context.Background(), f.document.PatientID)
	require.NoError(t, err)

	assert.Equal(t, docxContentType, result.ContentType)
	assert.Contains(t, result.FileName, "יואב-מזרחי-")
	assert.NotContains(t, result.FileName, "טיפול-שלישי")
	assert.True(t, bytes.HasPrefix(result.Data, []byte("PK")), "payload is a zip container")

	stored, err := f.documents.Get(context.Background(), f.document.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusCompleted, stored.Status, "summary export leaves documents untouched")

	events, err := f.outbox.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExportPatientSummaryUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ExportPatientSummary(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestExportDocumentNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ExportDocument(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestEmailDocumentWithoutMailer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EmailDocument(context.Background(), f.document.ID, "clinic@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestExportDocumentInFlightGuard(t *testing.T) {
	f := newFixture(t)

	f.svc.mu.Lock()
	f.svc.inFlight[f.document.ID] = struct{}{}
	f.svc.mu.Unlock()

	_, err := f.svc.ExportDocument(context.Background(), f.document.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	f.svc.release(f.document.ID)
	_, err = f.svc.ExportDocument(context.Background(), f.document.ID)
	assert.NoError(t, err)
}
