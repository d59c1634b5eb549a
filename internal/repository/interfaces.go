package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	TemplateRepository interface {
		Create(ctx context.Context, template *model.Template) error
		Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
		Update(ctx context.Context, template *model.Template) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, error)
		IncrementUsage(ctx context.Context, id uuid.UUID) error
	}

	DocumentRepository interface {
		Create(ctx context.Context, document *model.Document) error
		Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
		Update(ctx context.Context, document *model.Document) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
