package document

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/handler"
	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/service/document"
	"github.com/physiodoc/physiodoc-api/internal/service/export"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

type Handler struct {
	service  document.Service
	exporter export.Service
}

func NewHandler(service document.Service, exporter export.Service) *Handler {
	return &Handler{service: service, exporter: exporter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	documents := r.Group("/documents")
	{
		documents.POST("", h.CreateDocument)
		documents.GET("", h.ListDocuments)
		documents.GET("/:id", h.GetDocument)
		documents.DELETE("/:id", h.DeleteDocument)

		documents.PUT("/:id/data", h.UpdateDocumentData)
		documents.PUT("/:id/status", h.UpdateDocumentStatus)
		documents.PUT("/:id/display-settings", h.UpdateDisplaySettings)
		documents.POST("/:id/sign", h.SignDocument)
		documents.POST("/:id/duplicate", h.DuplicateDocument)
		documents.GET("/:id/preview", h.PreviewDocument)
		documents.POST("/:id/export", h.ExportDocument)
		documents.POST("/:id/email", h.EmailDocument)
	}
}

func (h *Handler) CreateDocument(c *gin.Context) {
	var req model.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	created, err := h.service.CreateDocument(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.Success(created))
}

func (h *Handler) GetDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	found, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(found))
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(nil))
}

func (h *Handler) ListDocuments(c *gin.Context) {
	var filters model.DocumentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	documents, err := h.service.ListDocuments(c.Request.Context(), &filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(documents))
}

func (h *Handler) UpdateDocumentData(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req model.UpdateDocumentDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.UpdateDocumentData(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(updated))
}

func (h *Handler) UpdateDocumentStatus(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req model.UpdateDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.UpdateDocumentStatus(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(updated))
}

func (h *Handler) UpdateDisplaySettings(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req model.UpdateDisplaySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.UpdateDisplaySettings(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(updated))
}

func (h *Handler) SignDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req model.SignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	signed, err := h.service.SignDocument(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(signed))
}

func (h *Handler) DuplicateDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	// Body is optional: an empty request duplicates under the default name.
	var req model.DuplicateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	duplicate, err := h.service.DuplicateDocument(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.Success(duplicate))
}

func (h *Handler) PreviewDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	preview, err := h.service.PreviewDocument(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(preview))
}

// ExportDocument streams the DOCX artifact. The filename travels in the
// Content-Disposition header; the response body is the raw container.
func (h *Handler) ExportDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	result, err := h.exporter.ExportDocument(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

type emailDocumentRequest struct {
	To string `json:"to" binding:"required,email"`
}

func (h *Handler) EmailDocument(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	var req emailDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	result, err := h.exporter.EmailDocument(c.Request.Context(), id, req.To)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(gin.H{"file_name": result.FileName}))
}

func (h *Handler) documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid document id", err))
		return uuid.Nil, false
	}
	return id, true
}
