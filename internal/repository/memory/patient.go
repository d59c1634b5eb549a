// Package memory provides in-memory repository implementations backing tests
// and single-clinic deployments without a database.
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

type patientRepository struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]model.Patient
}

func NewPatientRepository() repository.PatientRepository {
	return &patientRepository{patients: make(map[uuid.UUID]model.Patient)}
}

func (r *patientRepository) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	r.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return &patient, nil
}

func (r *patientRepository) Update(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[patient.ID]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	patient.UpdatedAt = time.Now()
	r.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[id]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	delete(r.patients, id)
	return nil
}

func (r *patientRepository) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Patient
	for _, patient := range r.patients {
		if filters != nil && filters.SearchTerm != "" {
			term := strings.ToLower(filters.SearchTerm)
			haystack := strings.ToLower(patient.FullName() + " " + patient.IDNumber + " " + patient.Phone)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		p := patient
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}
