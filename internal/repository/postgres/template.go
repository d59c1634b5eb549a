package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *model.Template) error {
	query := `
		INSERT INTO templates (id, name, description, category, version, fields, content, is_active, usage_count, author_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.Category,
		template.Version,
		template.Fields,
		template.Content,
		template.IsActive,
		template.UsageCount,
		template.AuthorName,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	query := `SELECT * FROM templates WHERE id = $1`
	var template model.Template
	err := r.db.GetContext(ctx, &template, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("template", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

func (r *templateRepository) Update(ctx context.Context, template *model.Template) error {
	query := `
		UPDATE templates
		SET name = $1, description = $2, category = $3, version = $4, fields = $5,
		    content = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	template.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		template.Name,
		template.Description,
		template.Category,
		template.Version,
		template.Fields,
		template.Content,
		template.IsActive,
		template.UpdatedAt,
		template.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM templates WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context, filters *model.TemplateFilters) ([]*model.Template, error) {
	query := `SELECT * FROM templates WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters != nil {
		if filters.Category != "" {
			query += fmt.Sprintf(` AND category = $%d`, idx)
			args = append(args, filters.Category)
			idx++
		}
		if filters.ActiveOnly {
			query += ` AND is_active = true`
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, idx, idx)
			args = append(args, "%"+filters.SearchTerm+"%")
			idx++
		}
	}
	query += ` ORDER BY updated_at DESC`

	var templates []*model.Template
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// IncrementUsage bumps usage_count atomically; callers do not read-modify-write.
func (r *templateRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE templates SET usage_count = usage_count + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound("template", nil)
	}
	return nil
}
