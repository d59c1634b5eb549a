package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/physiodoc/physiodoc-api/internal/model"
)

// cachedTemplateRepository wraps a TemplateRepository with a read-through
// cache on single-template lookups. Templates are read on every document
// creation, preview and export, so lookups dominate writes by a wide margin.
// Writes and usage bumps invalidate eagerly, the next reader sees fresh
// field definitions.
type cachedTemplateRepository struct {
	inner TemplateRepository
	cache *cache.Cache
}

func NewCachedTemplateRepository(inner TemplateRepository, ttl, cleanup time.Duration) TemplateRepository {
	return &cachedTemplateRepository{
		inner: inner,
		cache: cache.New(ttl, cleanup),
	}
}

func (r *cachedTemplateRepository) Create(ctx context.Context, template *model.Template) error {
	return r.inner.Create(ctx, template)
}

func (r *cachedTemplateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	if cached, found := r.cache.Get(id.String()); found {
		return cached.(*model.Template), nil
	}

	template, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id.String(), template, cache.DefaultExpiration)
	return template, nil
}

func (r *cachedTemplateRepository) Update(ctx context.Context, template *model.Template) error {
	if err := r.inner.Update(ctx, template); err != nil {
		return err
	}
	r.cache.Delete(template.ID.String())
	return nil
}

func (r *cachedTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Delete(id.String())
	return nil
}

// List always goes to the store; filter combinations make cached collections
// more trouble than the query they save.
func (r *cachedTemplateRepository) List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, error) {
	return r.inner.List(ctx, filters)
}

func (r *cachedTemplateRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.IncrementUsage(ctx, id); err != nil {
		return err
	}
	r.cache.Delete(id.String())
	return nil
}
