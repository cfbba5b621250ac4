package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nara-edu/timetable-api/internal/models"
	"github.com/nara-edu/timetable-api/internal/service"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
	"github.com/nara-edu/timetable-api/pkg/response"
)

type schedulePreferenceService interface {
	Get(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) (*models.SchedulePreference, error)
	ListActive(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error)
	Upsert(ctx context.Context, owner models.PreferenceOwner, req service.UpsertPreferenceRequest) (*models.SchedulePreference, error)
	Clear(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) error
	InitializeDefaults(ctx context.Context, owner models.PreferenceOwner, organizationID string, planSettingsID *string, modifiedBy string) (int, error)
}

// SchedulePreferenceHandler exposes per-slot scheduling preference endpoints.
type SchedulePreferenceHandler struct {
	service schedulePreferenceService
}

// NewSchedulePreferenceHandler constructs the handler.
func NewSchedulePreferenceHandler(service schedulePreferenceService) *SchedulePreferenceHandler {
	return &SchedulePreferenceHandler{service: service}
}

// List godoc
// @Summary List active preferences for an owner
// @Tags Preferences
// @Produce json
// @Param ownerKind path string true "Owner kind" Enums(teacher, room, class, rule)
// @Param ownerId path string true "Owner ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /preferences/{ownerKind}/{ownerId} [get]
func (h *SchedulePreferenceHandler) List(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	prefs, err := h.service.ListActive(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Get godoc
// @Summary Get the preference record for one slot
// @Tags Preferences
// @Produce json
// @Param ownerKind path string true "Owner kind" Enums(teacher, room, class, rule)
// @Param ownerId path string true "Owner ID"
// @Param period_id query string true "Period ID"
// @Param day_of_week query int true "Day of week (1=Monday..7=Sunday)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /preferences/{ownerKind}/{ownerId}/slot [get]
func (h *SchedulePreferenceHandler) Get(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	periodID := c.Query("period_id")
	day := queryInt(c, "day_of_week", 0)
	if periodID == "" || day < 1 || day > 7 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period_id and day_of_week (1-7) are required"))
		return
	}
	pref, err := h.service.Get(c.Request.Context(), owner, periodID, day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Upsert godoc
// @Summary Set one preference flag on a slot
// @Tags Preferences
// @Accept json
// @Produce json
// @Param ownerKind path string true "Owner kind" Enums(teacher, room, class, rule)
// @Param ownerId path string true "Owner ID"
// @Param payload body service.UpsertPreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /preferences/{ownerKind}/{ownerId} [post]
func (h *SchedulePreferenceHandler) Upsert(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	var req service.UpsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	if req.ModifiedBy == "" {
		if claims := claimsFromContext(c); claims != nil {
			req.ModifiedBy = claims.Subject
		}
	}
	pref, err := h.service.Upsert(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Clear godoc
// @Summary Clear the preference record for one slot
// @Tags Preferences
// @Produce json
// @Param ownerKind path string true "Owner kind" Enums(teacher, room, class, rule)
// @Param ownerId path string true "Owner ID"
// @Param period_id query string true "Period ID"
// @Param day_of_week query int true "Day of week (1=Monday..7=Sunday)"
// @Success 204
// @Security BearerAuth
// @Router /preferences/{ownerKind}/{ownerId}/slot [delete]
func (h *SchedulePreferenceHandler) Clear(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	periodID := c.Query("period_id")
	day := queryInt(c, "day_of_week", 0)
	if periodID == "" || day < 1 || day > 7 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period_id and day_of_week (1-7) are required"))
		return
	}
	if err := h.service.Clear(c.Request.Context(), owner, periodID, day); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type initializeDefaultsRequest struct {
	OrganizationID string  `json:"organization_id" binding:"required"`
	PlanSettingsID *string `json:"plan_settings_id,omitempty"`
}

// InitializeDefaults godoc
// @Summary Seed default availability records for an owner
// @Tags Preferences
// @Accept json
// @Produce json
// @Param ownerKind path string true "Owner kind" Enums(teacher, room, class, rule)
// @Param ownerId path string true "Owner ID"
// @Param payload body initializeDefaultsRequest true "Initialization payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /preferences/{ownerKind}/{ownerId}/defaults [post]
func (h *SchedulePreferenceHandler) InitializeDefaults(c *gin.Context) {
	owner, ok := ownerFromPath(c)
	if !ok {
		return
	}
	var req initializeDefaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid initialization payload"))
		return
	}
	modifiedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		modifiedBy = claims.Subject
	}
	count, err := h.service.InitializeDefaults(c.Request.Context(), owner, req.OrganizationID, req.PlanSettingsID, modifiedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"created": count})
}

func ownerFromPath(c *gin.Context) (models.PreferenceOwner, bool) {
	kind := models.PreferenceOwnerKind(strings.ToLower(c.Param("ownerKind")))
	switch kind {
	case models.OwnerTeacher, models.OwnerRoom, models.OwnerClass, models.OwnerRule:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "owner kind must be one of teacher, room, class, rule"))
		return models.PreferenceOwner{}, false
	}
	id := c.Param("ownerId")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "owner id is required"))
		return models.PreferenceOwner{}, false
	}
	return models.PreferenceOwner{Kind: kind, ID: id}, true
}
