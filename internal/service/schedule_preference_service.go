package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type schedulePreferenceRepo interface {
	FindByOwnerSlot(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) (*models.SchedulePreference, error)
	ListActiveByOwner(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error)
	Create(ctx context.Context, pref *models.SchedulePreference) error
	Update(ctx context.Context, pref *models.SchedulePreference) error
	Tombstone(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) error
	BulkCreate(ctx context.Context, prefs []models.SchedulePreference) error
}

type preferencePeriodReader interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Period, error)
}

// UpsertPreferenceRequest sets one named flag on an (owner, period, day) slot.
type UpsertPreferenceRequest struct {
	OrganizationID string  `json:"organization_id" validate:"required"`
	PlanSettingsID *string `json:"plan_settings_id,omitempty"`
	PeriodID       string  `json:"period_id" validate:"required"`
	DayOfWeek      int     `json:"day_of_week" validate:"required,min=1,max=7"`
	Flag           string  `json:"flag" validate:"required"`
	Value          bool    `json:"value"`
	ModifiedBy     string  `json:"modified_by"`
}

// SchedulePreferenceService owns the per-slot directive records. Flags are
// stored as independent booleans but written through mutually exclusive
// directive groups, so a record can never carry contradictory stances.
type SchedulePreferenceService struct {
	prefs     schedulePreferenceRepo
	periods   preferencePeriodReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchedulePreferenceService builds the service.
func NewSchedulePreferenceService(prefs schedulePreferenceRepo, periods preferencePeriodReader, validate *validator.Validate, logger *zap.Logger) *SchedulePreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulePreferenceService{prefs: prefs, periods: periods, validator: validate, logger: logger}
}

// Get returns the active preference for (owner, period, day), or NotFound.
func (s *SchedulePreferenceService) Get(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) (*models.SchedulePreference, error) {
	pref, err := s.prefs.FindByOwnerSlot(ctx, owner, periodID, dayOfWeek)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule preference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule preference")
	}
	return pref, nil
}

// ListActive returns every live preference record the owner holds.
func (s *SchedulePreferenceService) ListActive(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error) {
	prefs, err := s.prefs.ListActiveByOwner(ctx, owner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule preferences")
	}
	return prefs, nil
}

// Upsert sets one named flag, creating the record on first write for the slot
// and mutating it in place afterwards. Writing the same flag twice is
// idempotent: the slot keeps exactly one active record.
func (s *SchedulePreferenceService) Upsert(ctx context.Context, owner models.PreferenceOwner, req UpsertPreferenceRequest) (*models.SchedulePreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	if owner.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preference owner is required")
	}

	pref, err := s.prefs.FindByOwnerSlot(ctx, owner, req.PeriodID, req.DayOfWeek)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule preference")
	}

	create := pref == nil
	if create {
		pref = &models.SchedulePreference{
			OrganizationID: req.OrganizationID,
			PlanSettingsID: req.PlanSettingsID,
			PeriodID:       req.PeriodID,
			DayOfWeek:      req.DayOfWeek,
		}
		setOwner(pref, owner)
	}

	if ok := pref.SetFlag(req.Flag, req.Value); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown preference flag %q", req.Flag))
	}
	pref.ModifiedBy = req.ModifiedBy

	if create {
		if err := s.prefs.Create(ctx, pref); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule preference")
		}
	} else {
		if err := s.prefs.Update(ctx, pref); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule preference")
		}
	}
	return pref, nil
}

// Clear tombstones the slot's record. Clearing an absent slot is NotFound.
func (s *SchedulePreferenceService) Clear(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) error {
	if err := s.prefs.Tombstone(ctx, owner, periodID, dayOfWeek); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule preference not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule preference")
	}
	return nil
}

// InitializeDefaults bulk-creates one "available" record per (applicable day
// x teaching period) for a newly created owner.
func (s *SchedulePreferenceService) InitializeDefaults(ctx context.Context, owner models.PreferenceOwner, organizationID string, planSettingsID *string, modifiedBy string) (int, error) {
	if owner.ID == "" || organizationID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "owner and organization are required")
	}
	periods, err := s.periods.ListByOrganization(ctx, organizationID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period catalog")
	}

	var prefs []models.SchedulePreference
	for _, period := range periods {
		if !period.IsTeaching() {
			continue
		}
		for _, day := range period.DayNumbers() {
			if day < 1 || day > 7 {
				continue
			}
			pref := models.SchedulePreference{
				OrganizationID: organizationID,
				PlanSettingsID: planSettingsID,
				PeriodID:       period.ID,
				DayOfWeek:      day,
				IsAvailable:    true,
				Applies:        true,
				ModifiedBy:     modifiedBy,
			}
			setOwner(&pref, owner)
			prefs = append(prefs, pref)
		}
	}
	if len(prefs) == 0 {
		return 0, nil
	}
	if err := s.prefs.BulkCreate(ctx, prefs); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to initialize schedule preferences")
	}
	s.logger.Info("initialized default schedule preferences",
		zap.String("owner_kind", string(owner.Kind)),
		zap.String("owner_id", owner.ID),
		zap.Int("records", len(prefs)))
	return len(prefs), nil
}

func setOwner(pref *models.SchedulePreference, owner models.PreferenceOwner) {
	id := owner.ID
	switch owner.Kind {
	case models.OwnerTeacher:
		pref.TeacherID = &id
	case models.OwnerRoom:
		pref.RoomID = &id
	case models.OwnerClass:
		pref.ClassID = &id
	case models.OwnerRule:
		pref.RuleID = &id
	}
}
