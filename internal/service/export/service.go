package export

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/physiodoc/physiodoc-api/internal/docgen"
	"github.com/physiodoc/physiodoc-api/internal/email"
	"github.com/physiodoc/physiodoc-api/internal/export"
	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
	"github.com/physiodoc/physiodoc-api/pkg/logger"
	"github.com/physiodoc/physiodoc-api/pkg/metrics"
)

// Result is one exported artifact, ready to stream to the caller or hand to
// the mailer.
type Result struct {
	FileName    string
	ContentType string
	Data        []byte
}

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type Service interface {
	ExportDocument(ctx context.Context, id uuid.UUID) (*Result, error)
	ExportPatientSummary(ctx context.Context, patientID uuid.UUID) (*Result, error)
	EmailDocument(ctx context.Context, id uuid.UUID, to string) (*Result, error)
}

type service struct {
	documents  repository.DocumentRepository
	templates  repository.TemplateRepository
	patients   repository.PatientRepository
	outbox     repository.OutboxRepository
	assembler  *docgen.Assembler
	serializer *export.Serializer
	mailer     email.Service
	logger     *logger.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewService(
	documents repository.DocumentRepository,
	templates repository.TemplateRepository,
	patients repository.PatientRepository,
	outbox repository.OutboxRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) Service {
	return &service{
		documents:  documents,
		templates:  templates,
		patients:   patients,
		outbox:     outbox,
		assembler:  docgen.NewAssembler(),
		serializer: export.NewSerializer(),
		logger:     logger,
		metrics:    metrics,
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// NewServiceWithMailer builds an export service that can also deliver
// artifacts by email.
func NewServiceWithMailer(
	documents repository.DocumentRepository,
	templates repository.TemplateRepository,
	patients repository.PatientRepository,
	outbox repository.OutboxRepository,
	mailer email.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) Service {
	svc := NewService(documents, templates, patients, outbox, logger, metrics).(*service)
	svc.mailer = mailer
	return svc
}

// ExportDocument serializes one document to DOCX. Concurrent exports of the
// same document are rejected rather than queued; callers retry after the
// running export finishes.
func (s *service) ExportDocument(ctx context.Context, id uuid.UUID) (*Result, error) {
	if !s.acquire(id) {
		return nil, apperrors.Conflict("export already in progress", nil)
	}
	defer s.release(id)

	timer := prometheus.NewTimer(s.metrics.ExportLatency)
	defer timer.ObserveDuration()

	document, err := s.documents.Get(ctx, id)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		return nil, err
	}
	template, err := s.templates.Get(ctx, document.TemplateID)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		return nil, err
	}
	patient, err := s.patients.Get(ctx, document.PatientID)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		return nil, err
	}

	assembled := s.assembler.Assemble(template, patient, document)
	s.metrics.DocumentsAssembled.Inc()

	data, err := s.serializer.Serialize(assembled, document, template, patient, document.DisplaySettings)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		s.logger.Error(err, "Failed to serialize document", "document_id", id.String())
		return nil, err
	}

	// Export records when the artifact was produced but leaves the status
	// alone; moving to "exported" is a separate explicit transition.
	now := time.Now()
	document.ExportedAt = &now
	if err := s.documents.Update(ctx, document); err != nil {
		s.logger.Error(err, "Failed to record export timestamp", "document_id", id.String())
	}
	s.emitExportedEvent(ctx, document)

	s.metrics.DocumentsExported.WithLabelValues("success").Inc()
	s.metrics.ExportPayloadBytes.Observe(float64(len(data)))

	return &Result{
		FileName:    export.DocumentFileName(patient, document, now),
		ContentType: docxContentType,
		Data:        data,
	}, nil
}

// ExportPatientSummary serializes the patient's demographics, medical history
// and document list into a single artifact. Summaries are read-only views, so
// no status change or outbox event is recorded.
func (s *service) ExportPatientSummary(ctx context.Context, patientID uuid.UUID) (*Result, error) {
	if !s.acquire(patientID) {
		return nil, apperrors.Conflict("export already in progress", nil)
	}
	defer s.release(patientID)

	timer := prometheus.NewTimer(s.metrics.ExportLatency)
	defer timer.ObserveDuration()

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		return nil, err
	}
	documents, err := s.documents.List(ctx, &model.DocumentFilters{PatientID: patientID})
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		return nil, err
	}

	data, err := s.serializer.SerializePatientSummary(patient, documents)
	if err != nil {
		s.metrics.DocumentsExported.WithLabelValues("error").Inc()
		s.logger.Error(err, "Failed to serialize patient summary", "patient_id", patientID.String())
		return nil, err
	}

	s.metrics.DocumentsExported.WithLabelValues("success").Inc()
	s.metrics.ExportPayloadBytes.Observe(float64(len(data)))

	return &Result{
		FileName:    export.PatientFileName(patient, time.Now()),
		ContentType: docxContentType,
		Data:        data,
	}, nil
}

// EmailDocument exports the document and mails the artifact to the given
// address.
func (s *service) EmailDocument(ctx context.Context, id uuid.UUID, to string) (*Result, error) {
	if s.mailer == nil {
		return nil, apperrors.BadRequest("email delivery is not configured", nil)
	}

	result, err := s.ExportDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	document, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := "מסמך: " + document.Name
	body := "מצורף המסמך המבוקש."
	if err := s.mailer.SendDocument(ctx, to, subject, body, result.FileName, result.Data); err != nil {
		return nil, apperrors.Internal(err)
	}
	return result, nil
}

func (s *service) acquire(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *service) release(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func (s *service) emitExportedEvent(ctx context.Context, document *model.Document) {
	payload, err := json.Marshal(map[string]string{
		"document_id": document.ID.String(),
		"patient_id":  document.PatientID.String(),
	})
	if err != nil {
		s.logger.Error(err, "Failed to marshal event payload")
		return
	}
	event := &model.OutboxEvent{
		EventType: model.EventDocumentExported,
		Payload:   payload,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error(err, "Failed to record outbox event",
			"event_type", model.EventDocumentExported,
			"document_id", document.ID.String())
	}
}
