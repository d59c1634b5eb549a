package template

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/physiodoc/physiodoc-api/internal/handler"
	"github.com/physiodoc/physiodoc-api/internal/model"
	"github.com/physiodoc/physiodoc-api/internal/service/template"
	apperrors "github.com/physiodoc/physiodoc-api/pkg/errors"
)

type Handler struct {
	service template.Service
}

func NewHandler(service template.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)

		templates.POST("/:id/duplicate", h.DuplicateTemplate)
	}
}

// DuplicateTemplate accepts an optional body with a name override; an empty
// body duplicates under the default copy name.
func (h *Handler) DuplicateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid template id", err))
		return
	}

	var req model.DuplicateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	duplicate, err := h.service.DuplicateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.Success(duplicate))
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	created, err := h.service.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.Success(created))
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid template id", err))
		return
	}

	found, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(found))
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid template id", err))
		return
	}

	var req model.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.UpdateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(updated))
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid template id", err))
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(nil))
}

func (h *Handler) ListTemplates(c *gin.Context) {
	var filters model.TemplateFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Error(apperrors.BadRequest(err.Error(), err))
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), &filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.Success(templates))
}
