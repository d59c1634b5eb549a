package template

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

const duplicateNamePrefix = "העתק של"

type Service interface {
	CreateTemplate(ctx context.Context, req *model.CreateTemplateRequest) (*model.Template, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.Template, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	DuplicateTemplate(ctx context.Context, id uuid.UUID, req *model.DuplicateTemplateRequest) (*model.Template, error)
	ListTemplates(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, error)
}

type service struct {
	repo repository.TemplateRepository
}

func NewService(repo repository.TemplateRepository) Service {
	return &service{repo: repo}
}

func (s *service) CreateTemplate(ctx context.Context, req *model.CreateTemplateRequest) (*model.Template, error) {
	if err := validateFields(req.Fields); err != nil {
		return nil, err
	}

	template := &model.Template{
		Base:        model.Base{ID: uuid.New()},
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Version:     1,
		Fields:      req.Fields,
		Content:     req.Content,
		IsActive:    true,
		AuthorName:  req.AuthorName,
	}
	if err := s.repo.Create(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *service) GetTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	return s.repo.Get(ctx, id)
}

// UpdateTemplate applies the patch and bumps the template version whenever
// the field set or the body changed. Metadata-only edits keep the version.
func (s *service) UpdateTemplate(ctx context.Context, id uuid.UUID, req *model.UpdateTemplateRequest) (*model.Template, error) {
	template, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Category != nil {
		template.Category = *req.Category
	}
	if req.Fields != nil {
		if err := validateFields(req.Fields); err != nil {
			return nil, err
		}
		template.Fields = req.Fields
		contentChanged = true
	}
	if req.Content != nil {
		if *req.Content != template.Content {
			contentChanged = true
		}
		template.Content = *req.Content
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if contentChanged {
		template.Version++
	}

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// DuplicateTemplate copies an existing template under a new name. The copy
// starts at version 1 with a zero usage count and stays active regardless of
// the source's state, so it is immediately usable for new documents.
func (s *service) DuplicateTemplate(ctx context.Context, id uuid.UUID, req *model.DuplicateTemplateRequest) (*model.Template, error) {
	source, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = duplicateNamePrefix + " " + source.Name
	}

	fields := make(model.FieldList, len(source.Fields))
	copy(fields, source.Fields)

	duplicate := &model.Template{
		Base:        model.Base{ID: uuid.New()},
		Name:        name,
		Description: source.Description,
		Category:    source.Category,
		Version:     1,
		Fields:      fields,
		Content:     source.Content,
		IsActive:    true,
		AuthorName:  source.AuthorName,
	}
	if err := s.repo.Create(ctx, duplicate); err != nil {
		return nil, err
	}
	return duplicate, nil
}

func (s *service) ListTemplates(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, error) {
	return s.repo.List(ctx, filters)
}

func validateFields(fields []model.TemplateField) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !f.Type.Valid() {
			return apperrors.BadRequest(fmt.Sprintf("unknown field type %q", f.Type), nil)
		}
		if f.Type.Structural() {
			continue
		}
		if f.Name == "" {
			return apperrors.BadRequest("field name is required", nil)
		}
		if _, dup := seen[f.Name]; dup {
			return apperrors.BadRequest(fmt.Sprintf("duplicate field name %q", f.Name), nil)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
