package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/models"
	"github.com/nara-edu/timetable-api/internal/service"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/response"
)

type bindingService interface {
	List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error)
	Get(ctx context.Context, publicID string) (*models.Binding, error)
	Create(ctx context.Context, req service.BindingRequest) (*models.Binding, error)
	Update(ctx context.Context, publicID string, req service.BindingRequest) (*models.Binding, error)
	Delete(ctx context.Context, publicID string) error
}

// BindingHandler exposes teaching binding CRUD endpoints.
type BindingHandler struct {
	service bindingService
}

// NewBindingHandler constructs the handler.
func NewBindingHandler(service bindingService) *BindingHandler {
	return &BindingHandler{service: service}
}

// List godoc
// @Summary List teaching bindings
// @Tags Bindings
// @Produce json
// @Param organization_id query string false "Organization ID"
// @Param teacher_id query string false "Teacher ID"
// @Param room_id query string false "Room ID"
// @Param class_id query string false "Class ID"
// @Param class_band_id query string false "Class band ID"
// @Param plan_settings_id query string false "Plan setting ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bindings [get]
func (h *BindingHandler) List(c *gin.Context) {
	filter := models.BindingFilter{
		OrganizationID: c.Query("organization_id"),
		TeacherID:      c.Query("teacher_id"),
		RoomID:         c.Query("room_id"),
		ClassID:        c.Query("class_id"),
		ClassBandID:    c.Query("class_band_id"),
		PlanSettingsID: c.Query("plan_settings_id"),
		Page:           queryInt(c, "page", 1),
		PageSize:       queryInt(c, "page_size", 20),
	}
	if filter.OrganizationID == "" {
		if claims := claimsFromContext(c); claims != nil {
			filter.OrganizationID = claims.OrganizationID
		}
	}

	bindings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	pagination.Normalize()
	response.JSON(c, http.StatusOK, bindings, pagination)
}

// Get godoc
// @Summary Get a teaching binding
// @Tags Bindings
// @Produce json
// @Param uuid path string true "Binding UUID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bindings/{uuid} [get]
func (h *BindingHandler) Get(c *gin.Context) {
	binding, err := h.service.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, binding, nil)
}

// Create godoc
// @Summary Create a teaching binding
// @Tags Bindings
// @Accept json
// @Produce json
// @Param payload body service.BindingRequest true "Binding payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /bindings [post]
func (h *BindingHandler) Create(c *gin.Context) {
	var req service.BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid binding payload"))
		return
	}
	binding, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, binding)
}

// Update godoc
// @Summary Update a teaching binding
// @Tags Bindings
// @Accept json
// @Produce json
// @Param uuid path string true "Binding UUID"
// @Param payload body service.BindingRequest true "Binding payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /bindings/{uuid} [put]
func (h *BindingHandler) Update(c *gin.Context) {
	var req service.BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid binding payload"))
		return
	}
	binding, err := h.service.Update(c.Request.Context(), c.Param("uuid"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, binding, nil)
}

// Delete godoc
// @Summary Delete a teaching binding
// @Tags Bindings
// @Produce json
// @Param uuid path string true "Binding UUID"
// @Success 204
// @Security BearerAuth
// @Router /bindings/{uuid} [delete]
func (h *BindingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
