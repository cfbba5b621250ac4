package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/response"
)

type capacityService interface {
	MaxTeachingPeriodsPerWeek(ctx context.Context, organizationID string) (int, error)
	TotalSlots(ctx context.Context, planSettingsID string) (int, error)
	InvalidateOrganization(ctx context.Context, organizationID string) error
	InvalidatePlanSetting(ctx context.Context, planSettingsID string) error
}

type workloadService interface {
	CommittedPeriods(ctx context.Context, scope models.Scope) (int, error)
}

// CapacityHandler exposes read-only capacity and workload figures.
type CapacityHandler struct {
	capacity capacityService
	workload workloadService
}

// NewCapacityHandler constructs the handler.
func NewCapacityHandler(capacity capacityService, workload workloadService) *CapacityHandler {
	return &CapacityHandler{capacity: capacity, workload: workload}
}

// MaxTeachingPeriods godoc
// @Summary Weekly teaching capacity for an organization
// @Tags Capacity
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /capacity/organizations/{id} [get]
func (h *CapacityHandler) MaxTeachingPeriods(c *gin.Context) {
	max, err := h.capacity.MaxTeachingPeriodsPerWeek(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"max_teaching_periods_per_week": max}, nil)
}

// TotalSlots godoc
// @Summary Total weekly slots under a plan setting
// @Tags Capacity
// @Produce json
// @Param id path string true "Plan setting ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /capacity/plan-settings/{id} [get]
func (h *CapacityHandler) TotalSlots(c *gin.Context) {
	total, err := h.capacity.TotalSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"total_slots": total}, nil)
}

// RefreshOrganization godoc
// @Summary Drop cached capacity figures for an organization
// @Tags Capacity
// @Produce json
// @Param id path string true "Organization ID"
// @Success 204
// @Security BearerAuth
// @Router /capacity/organizations/{id}/refresh [post]
func (h *CapacityHandler) RefreshOrganization(c *gin.Context) {
	if err := h.capacity.InvalidateOrganization(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RefreshPlanSetting godoc
// @Summary Drop the cached slot total for a plan setting
// @Tags Capacity
// @Produce json
// @Param id path string true "Plan setting ID"
// @Success 204
// @Security BearerAuth
// @Router /capacity/plan-settings/{id}/refresh [post]
func (h *CapacityHandler) RefreshPlanSetting(c *gin.Context) {
	if err := h.capacity.InvalidatePlanSetting(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Workload godoc
// @Summary Committed weekly periods for a scope
// @Tags Capacity
// @Produce json
// @Param kind path string true "Scope kind" Enums(teacher, room, class, class_band)
// @Param id path string true "Scope entity ID"
// @Param plan_settings_id query string false "Plan setting ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /workloads/{kind}/{id} [get]
func (h *CapacityHandler) Workload(c *gin.Context) {
	kind := models.ScopeKind(c.Param("kind"))
	switch kind {
	case models.ScopeTeacher, models.ScopeRoom, models.ScopeClass, models.ScopeClassBand:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "scope kind must be one of teacher, room, class, class_band"))
		return
	}
	scope := models.Scope{Kind: kind, ID: c.Param("id")}
	if plan := c.Query("plan_settings_id"); plan != "" {
		scope.PlanSettingsID = &plan
	}
	committed, err := h.workload.CommittedPeriods(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"committed_periods": committed}, nil)
}
