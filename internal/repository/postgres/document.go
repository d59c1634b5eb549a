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

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, document *model.Document) error {
	query := `
		INSERT INTO documents (id, name, template_id, patient_id, data, status, version,
		                       completed_at, exported_at, signed_by, signed_at, display_settings,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	document.CreatedAt = time.Now()
	document.UpdatedAt = time.Now()

	var settings interface{}
	if document.DisplaySettings != nil {
		settings = document.DisplaySettings
	}

	_, err := r.db.ExecContext(ctx, query,
		document.ID,
		document.Name,
		document.TemplateID,
		document.PatientID,
		document.Data,
		document.Status,
		document.Version,
		document.CompletedAt,
		document.ExportedAt,
		document.SignedBy,
		document.SignedAt,
		settings,
		document.CreatedAt,
		document.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1`
	var document model.Document
	err := r.db.GetContext(ctx, &document, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("document", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &document, nil
}

func (r *documentRepository) Update(ctx context.Context, document *model.Document) error {
	query := `
		UPDATE documents
		SET name = $1, data = $2, status = $3, version = $4, completed_at = $5,
		    exported_at = $6, signed_by = $7, signed_at = $8, display_settings = $9,
		    updated_at = $10
		WHERE id = $11
	`
	document.UpdatedAt = time.Now()

	var settings interface{}
	if document.DisplaySettings != nil {
		settings = document.DisplaySettings
	}

	result, err := r.db.ExecContext(ctx, query,
		document.Name,
		document.Data,
		document.Status,
		document.Version,
		document.CompletedAt,
		document.ExportedAt,
		document.SignedBy,
		document.SignedAt,
		settings,
		document.UpdatedAt,
		document.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound("document", nil)
	}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NotFound("document", nil)
	}
	return nil
}

func (r *documentRepository) List(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, error) {
	query := `SELECT * FROM documents WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(` AND patient_id = $%d`, idx)
			args = append(args, filters.PatientID)
			idx++
		}
		if filters.TemplateID != uuid.Nil {
			query += fmt.Sprintf(` AND template_id = $%d`, idx)
			args = append(args, filters.TemplateID)
			idx++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(` AND status = $%d`, idx)
			args = append(args, filters.Status)
			idx++
		}
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
			args = append(args, "%"+filters.SearchTerm+"%")
			idx++
		}
	}
	query += ` ORDER BY updated_at DESC`

	var documents []*model.Document
	if err := r.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}
