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

type templateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]model.Template
}

func NewTemplateRepository() repository.TemplateRepository {
	return &templateRepository{templates: make(map[uuid.UUID]model.Template)}
}

func (r *templateRepository) Create(_ context.Context, template *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()
	r.templates[template.ID] = *template
	return nil
}

func (r *templateRepository) Get(_ context.Context, id uuid.UUID) (*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, ok := r.templates[id]
	if !ok {
		return nil, apperrors.NotFound("template", nil)
	}
	return &template, nil
}

func (r *templateRepository) Update(_ context.Context, template *model.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.templates[template.ID]
	if !ok {
		return apperrors.NotFound("template", nil)
	}
	template.UsageCount = existing.UsageCount
	template.UpdatedAt = time.Now()
	r.templates[template.ID] = *template
	return nil
}

func (r *templateRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return apperrors.NotFound("template", nil)
	}
	delete(r.templates, id)
	return nil
}

func (r *templateRepository) List(_ context.Context, filters *model.TemplateFilters) ([]*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Template
	for _, template := range r.templates {
		if filters != nil {
			if filters.Category != "" && template.Category != filters.Category {
				continue
			}
			if filters.ActiveOnly && !template.IsActive {
				continue
			}
			if filters.SearchTerm != "" {
				term := strings.ToLower(filters.SearchTerm)
				haystack := strings.ToLower(template.Name + " " + template.Description)
				if !strings.Contains(haystack, term) {
					continue
				}
			}
		}
		t := template
		result = append(result, &t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *templateRepository) IncrementUsage(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	template, ok := r.templates[id]
	if !ok {
		return apperrors.NotFound("template", nil)
	}
	template.UsageCount++
	r.templates[id] = template
	return nil
}
