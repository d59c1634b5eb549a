package document

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiodoc/physiodoc-api/internal/middleware"
	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/repository/memory"
	documentService "github.com/physiodoc/physiodoc-api/internal/service/document"
	exportService "github.com/physiodoc/physiodoc-api/internal/service/export"
	"github.com/physiodoc/physiodoc-api/pkg/logger"
	"github.com/physiodoc/physiodoc-api/pkg/metrics"
)

type testAPI struct {
	engine   *gin.Engine
	template *model.Template
	patient  *model.Patient
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	documents := memory.NewDocumentRepository()
	templates := memory.NewTemplateRepository()
	patients := memory.NewPatientRepository()
	outbox := memory.NewOutboxRepository()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})

	docSvc := documentService.NewService(documents, templates, patients, outbox, log)
	expSvc := exportService.NewService(documents, templates, patients, outbox, log, metrics.New("handler_test"))

	engine := gin.New()
	engine.Use(middleware.ErrorHandler())
	api := engine.Group("/api/v1")
	NewHandler(docSvc, expSvc).RegisterRoutes(api)

	patient := &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		FirstName: "רות",
		LastName:  "אברהם",
		IDNumber:  "305671234",
		Phone:     "053-2223344",
	}
	require.NoError(t, patients.Create(context.Background(), patient))

	template := &model.Template{
		Base:     model.Base{ID: uuid.New()},
		Name:     "תרגילי בית",
		Category: model.TemplateCategoryExercise,
		Version:  1,
		IsActive: true,
		Fields: model.FieldList{
			{Name: "exercises", Label: "תרגילים", Type: model.FieldTypeTextarea, Required: true, Order: 1},
		},
		Content: "תרגילים: {{exercises}}",
	}
	require.NoError(t, templates.Create(context.Background(), template))

	return &testAPI{engine: engine, template: template, patient: patient}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) createDocument(t *testing.T) uuid.UUID {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/documents", gin.H{
		"name":        "תוכנית תרגול",
		"template_id": a.template.ID.String(),
		"patient_id":  a.patient.ID.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data model.Document `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestCreateAndGetDocument(t *testing.T) {
	api := newTestAPI(t)
	id := api.createDocument(t)

	w := api.do(t, http.MethodGet, "/api/v1/documents/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "תוכנית תרגול")
}

func TestGetDocumentNotFound(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/documents/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDocumentBadID(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/documents/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewDocumentRoute(t *testing.T) {
	api := newTestAPI(t)
	id := api.createDocument(t)

	w := api.do(t, http.MethodPut, "/api/v1/documents/"+id.String()+"/data", gin.H{
		"data": gin.H{"exercises": "סקוואט, גשר"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/api/v1/documents/"+id.String()+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "סקוואט, גשר")
	assert.NotContains(t, w.Body.String(), "{{exercises}}")
}

func TestExportDocumentRoute(t *testing.T) {
	api := newTestAPI(t)
	id := api.createDocument(t)

	w := api.do(t, http.MethodPost, "/api/v1/documents/"+id.String()+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".docx")
	assert.Contains(t, w.Header().Get("Content-Type"), "wordprocessingml")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestDuplicateDocumentRouteWithoutBody(t *testing.T) {
	api := newTestAPI(t)
	id := api.createDocument(t)

	w := api.do(t, http.MethodPost, "/api/v1/documents/"+id.String()+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "העתק של תוכנית תרגול")
}
