package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

type documentRepository struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]model.Document
}

func NewDocumentRepository() repository.DocumentRepository {
	return &documentRepository{documents: make(map[uuid.UUID]model.Document)}
}

func (r *documentRepository) Create(_ context.Context, document *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	document.CreatedAt = time.Now()
	document.UpdatedAt = time.Now()
	r.documents[document.ID] = *document
	return nil
}

func (r *documentRepository) Get(_ context.Context, id uuid.UUID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	document, ok := r.documents[id]
	if !ok {
		return nil, apperrors.NotFound("document", nil)
	}
	return &document, nil
}

func (r *documentRepository) Update(_ context.Context, document *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[document.ID]; !ok {
		return apperrors.NotFound("document", nil)
	}
	document.UpdatedAt = time.Now()
	r.documents[document.ID] = *document
	return nil
}

func (r *documentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[id]; !ok {
		return apperrors.NotFound("document", nil)
	}
	delete(r.documents, id)
	return nil
}

func (r *documentRepository) List(_ context.Context, filters *model.DocumentFilters) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Document
	for _, document := range r.documents {
		if filters != nil {
			if filters.PatientID != uuid.Nil && document.PatientID != filters.PatientID {
				continue
			}
			if filters.TemplateID != uuid.Nil && document.TemplateID != filters.TemplateID {
				continue
			}
			if filters.Status != "" && document.Status != filters.Status {
				continue
			}
			if filters.SearchTerm != "" &&
				!strings.Contains(strings.ToLower(document.Name), strings.ToLower(filters.SearchTerm)) {
				continue
			}
		}
		d := document
		result = append(result, &d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}
