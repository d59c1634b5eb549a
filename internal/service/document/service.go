package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/docgen"
	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
	"github.com/physiodoc/physiodoc-api/pkg/logger"
)

// DefaultDuplicateNamePrefix is prepended when a duplicate request carries
// no explicit name.
const DefaultDuplicateNamePrefix = "העתק של"

type Service interface {
	CreateDocument(ctx context.Context, req *model.CreateDocumentRequest) (*model.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
	UpdateDocumentData(ctx context.Context, id uuid.UUID, req *model.UpdateDocumentDataRequest) (*model.Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, req *model.UpdateDocumentStatusRequest) (*model.Document, error)
	SignDocument(ctx context.Context, id uuid.UUID, req *model.SignDocumentRequest) (*model.Document, error)
	DuplicateDocument(ctx context.Context, id uuid.UUID, req *model.DuplicateDocumentRequest) (*model.Document, error)
	UpdateDisplaySettings(ctx context.Context, id uuid.UUID, req *model.UpdateDisplaySettingsRequest) (*model.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocuments(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, error)
	PreviewDocument(ctx context.Context, id uuid.UUID) (*docgen.AssembledDocument, error)
}

type service struct {
	documents repository.DocumentRepository
	templates repository.TemplateRepository
	patients  repository.PatientRepository
	outbox    repository.OutboxRepository
	assembler *docgen.Assembler
	logger    *logger.Logger
}

func NewService(
	documents repository.DocumentRepository,
	templates repository.TemplateRepository,
	patients repository.PatientRepository,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
) Service {
	return &service{
		documents: documents,
		templates: templates,
		patients:  patients,
		outbox:    outbox,
		assembler: docgen.NewAssembler(),
		logger:    logger,
	}
}

// CreateDocument instantiates a template for a patient. Auto-fillable
// patient_info fields are snapshotted into the document data exactly once,
// here; later patient edits do not rewrite them.
func (s *service) CreateDocument(ctx context.Context, req *model.CreateDocumentRequest) (*model.Document, error) {
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid template id", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	template, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, apperrors.Conflict("template is not active", nil)
	}
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	document := &model.Document{
		Base:       model.Base{ID: uuid.New()},
		Name:       req.Name,
		TemplateID: template.ID,
		PatientID:  patient.ID,
		Data:       s.assembler.AutoFillValues(template, patient),
		Status:     model.DocumentStatusDraft,
		Version:    1,
	}
	if err := s.documents.Create(ctx, document); err != nil {
		return nil, err
	}

	if err := s.templates.IncrementUsage(ctx, template.ID); err != nil {
		s.logger.Error(err, "Failed to increment template usage",
			"template_id", template.ID.String())
	}

	s.emitEvent(ctx, model.EventDocumentCreated, document)
	return document, nil
}

func (s *service) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	return s.documents.Get(ctx, id)
}

// UpdateDocumentData merges the submitted values into the stored data map
// and bumps the document version. Keys absent from the request are kept.
func (s *service) UpdateDocumentData(ctx context.Context, id uuid.UUID, req *model.UpdateDocumentDataRequest) (*model.Document, error) {
	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if document.Data == nil {
		document.Data = model.FieldValues{}
	}
	for name, value := range req.Data {
		document.Data[name] = value
	}
	document.Version++

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, err
	}

	s.emitEvent(ctx, model.EventDocumentUpdated, document)
	return document, nil
}

func (s *service) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, req *model.UpdateDocumentStatusRequest) (*model.Document, error) {
	if !req.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown status %q", req.Status), nil)
	}

	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	document.Status = req.Status
	if req.Status == model.DocumentStatusCompleted && document.CompletedAt == nil {
		now := time.Now()
		document.CompletedAt = &now
	}
	if req.Status == model.DocumentStatusExported && document.ExportedAt == nil {
		now := time.Now()
		document.ExportedAt = &now
	}

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, err
	}

	s.emitEvent(ctx, model.EventDocumentUpdated, document)
	return document, nil
}

func (s *service) SignDocument(ctx context.Context, id uuid.UUID, req *model.SignDocumentRequest) (*model.Document, error) {
	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if document.SignedAt != nil {
		return nil, apperrors.Conflict("document is already signed", nil)
	}

	now := time.Now()
	document.Status = model.DocumentStatusSigned
	document.SignedBy = &req.SignedBy
	document.SignedAt = &now

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, err
	}

	s.emitEvent(ctx, model.EventDocumentSigned, document)
	return document, nil
}

// DuplicateDocument copies an existing document into a fresh draft. Field
// values and display settings carry over; signature and export metadata do
// not.
func (s *service) DuplicateDocument(ctx context.Context, id uuid.UUID, req *model.DuplicateDocumentRequest) (*model.Document, error) {
	source, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = DefaultDuplicateNamePrefix + " " + source.Name
	}

	data := make(model.FieldValues, len(source.Data))
	for k, v := range source.Data {
		data[k] = v
	}
	var settings *model.DisplaySettings
	if source.DisplaySettings != nil {
		copied := *source.DisplaySettings
		settings = &copied
	}

	duplicate := &model.Document{
		Base:            model.Base{ID: uuid.New()},
		Name:            name,
		TemplateID:      source.TemplateID,
		PatientID:       source.PatientID,
		Data:            data,
		Status:          model.DocumentStatusDraft,
		Version:         1,
		DisplaySettings: settings,
	}
	if err := s.documents.Create(ctx, duplicate); err != nil {
		return nil, err
	}

	s.emitEvent(ctx, model.EventDocumentCreated, duplicate)
	return duplicate, nil
}

func (s *service) UpdateDisplaySettings(ctx context.Context, id uuid.UUID, req *model.UpdateDisplaySettingsRequest) (*model.Document, error) {
	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if document.DisplaySettings == nil {
		document.DisplaySettings = &model.DisplaySettings{}
	}
	if req.ShowPatientDetails != nil {
		document.DisplaySettings.ShowPatientDetails = req.ShowPatientDetails
	}
	if req.ShowContactDetails != nil {
		document.DisplaySettings.ShowContactDetails = req.ShowContactDetails
	}

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, err
	}
	return document, nil
}

func (s *service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	s.emitEvent(ctx, model.EventDocumentDeleted, document)
	return nil
}

func (s *service) ListDocuments(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, error) {
	return s.documents.List(ctx, filters)
}

// PreviewDocument assembles the document against its current template and
// patient. Nothing is persisted.
func (s *service) PreviewDocument(ctx context.Context, id uuid.UUID) (*docgen.AssembledDocument, error) {
	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	template, err := s.templates.Get(ctx, document.TemplateID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.Get(ctx, document.PatientID)
	if err != nil {
		return nil, err
	}

	return s.assembler.Assemble(template, patient, document), nil
}

type documentEventPayload struct {
	DocumentID uuid.UUID            `json:"document_id"`
	PatientID  uuid.UUID            `json:"patient_id"`
	TemplateID uuid.UUID            `json:"template_id"`
	Name       string               `json:"name"`
	Status     model.DocumentStatus `json:"status"`
	Version    int                  `json:"version"`
}

// emitEvent records a lifecycle event in the outbox. Failures are logged and
// do not fail the triggering operation.
func (s *service) emitEvent(ctx context.Context, eventType string, document *model.Document) {
	payload, err := json.Marshal(documentEventPayload{
		DocumentID: document.ID,
		PatientID:  document.PatientID,
		TemplateID: document.TemplateID,
		Name:       document.Name,
		Status:     document.Status,
		Version:    document.Version,
	})
	if err != nil {
		s.logger.Error(err, "Failed to marshal event payload", "event_type", eventType)
		return
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error(err, "Failed to record outbox event",
			"event_type", eventType,
			"document_id", document.ID.String())
	}
}
