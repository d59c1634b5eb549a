package patient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository/memory"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

func newService() Service {
	return NewService(memory.NewPatientRepository())
}

func TestCreateAndGetPatient(t *testing.T) {
	svc := newService()

	created, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "אורי",
		LastName:  "ברק",
		IDNumber:  "301234567",
		Phone:     "052-1112233",
	})
	require.NoError(t, err)

	got, err := svc.GetPatient(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "אורי ברק", got.FullName())
}

func TestUpdatePatientPartialPatch(t *testing.T) {
	svc := newService()
	created, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "אורי",
		LastName:  "ברק",
		IDNumber:  "301234567",
		Phone:     "052-1112233",
	})
	require.NoError(t, err)

	phone := "050-9998877"
	updated, err := svc.UpdatePatient(context.Background(), created.ID, &model.UpdatePatientRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "050-9998877", updated.Phone)
	assert.Equal(t, "אורי", updated.FirstName, "untouched fields kept")
}

func TestAddMedicalRecordAppendsOnly(t *testing.T) {
	svc := newService()
	created, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "אורי",
		LastName:  "ברק",
		IDNumber:  "301234567",
		Phone:     "052-1112233",
	})
	require.NoError(t, err)

	first, err := svc.AddMedicalRecord(context.Background(), created.ID, &model.AddMedicalRecordRequest{
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Diagnosis: "פריצת דיסק",
		Treatment: "פיזיותרפיה",
	})
	require.NoError(t, err)
	require.Len(t, first.MedicalHistory, 1)

	second, err := svc.AddMedicalRecord(context.Background(), created.ID, &model.AddMedicalRecordRequest{
		Date:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Diagnosis: "שיפור",
		Treatment: "המשך תרגול",
	})
	require.NoError(t, err)
	require.Len(t, second.MedicalHistory, 2)
	assert.Equal(t, "פריצת דיסק", second.MedicalHistory[0].Diagnosis, "earlier entries untouched")
}

func TestDeletePatient(t *testing.T) {
	svc := newService()
	created, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "אורי",
		LastName:  "ברק",
		IDNumber:  "301234567",
		Phone:     "052-1112233",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePatient(context.Background(), created.ID))
	_, err = svc.GetPatient(context.Background(), created.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestListPatientsSearch(t *testing.T) {
	svc := newService()
	_, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "אורי", LastName: "ברק", IDNumber: "301234567", Phone: "052-1112233",
	})
	require.NoError(t, err)
	_, err = svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		FirstName: "דנה", LastName: "כהן", IDNumber: "204567891", Phone: "054-3334455",
	})
	require.NoError(t, err)

	found, err := svc.ListPatients(context.Background(), &model.PatientFilters{SearchTerm: "דנה"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "דנה כהן", found[0].FullName())
}
