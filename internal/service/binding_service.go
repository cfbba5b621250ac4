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
	"github.com/nara-edu/timetable-api/pkg/scopelock"
)

type bindingWriter interface {
	FindByID(ctx context.Context, id string) (*models.Binding, error)
	FindByUUID(ctx context.Context, publicID string) (*models.Binding, error)
	List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error)
	Create(ctx context.Context, binding *models.Binding) error
	Update(ctx context.Context, binding *models.Binding) error
	SoftDelete(ctx context.Context, id string) error
}

type bindingValidator interface {
	ValidateCreate(ctx context.Context, req BindingRequest) (*ResolvedBinding, error)
	ValidateUpdate(ctx context.Context, req BindingRequest, existingID string) (*ResolvedBinding, error)
}

// BindingService is the commit path: it holds the scope locks across the
// validate-then-persist sequence so concurrent requests against the same
// teacher, room, class or class band cannot jointly overshoot a capacity
// ceiling.
type BindingService struct {
	bindings  bindingWriter
	admission bindingValidator
	locks     *scopelock.Registry
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBindingService constructs the service.
func NewBindingService(bindings bindingWriter, admission bindingValidator, locks *scopelock.Registry, validate *validator.Validate, logger *zap.Logger) *BindingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = scopelock.NewRegistry()
	}
	return &BindingService{
		bindings:  bindings,
		admission: admission,
		locks:     locks,
		validator: validate,
		logger:    logger,
	}
}

// List returns bindings matching the filter.
func (s *BindingService) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	bindings, total, err := s.bindings.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bindings")
	}
	return bindings, total, nil
}

// Get returns a binding by public uuid.
func (s *BindingService) Get(ctx context.Context, publicID string) (*models.Binding, error) {
	binding, err := s.bindings.FindByUUID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding")
	}
	return binding, nil
}

// Create validates and persists a new binding under the scope locks.
func (s *BindingService) Create(ctx context.Context, req BindingRequest) (*models.Binding, error) {
	if err := s.validateShape(req); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(requestScopeKeys(req)...)
	defer release()

	resolved, err := s.admission.ValidateCreate(ctx, req)
	if err != nil {
		return nil, err
	}

	binding := bindingFromResolved(resolved)
	if err := s.bindings.Create(ctx, binding); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create binding")
	}
	s.logger.Info("binding created",
		zap.String("binding_id", binding.ID),
		zap.String("teacher_id", binding.TeacherID),
		zap.Int("periods_per_week", binding.PeriodsPerWeek))
	return binding, nil
}

// Update re-validates against the delta and rewrites the binding under the
// scope locks.
func (s *BindingService) Update(ctx context.Context, publicID string, req BindingRequest) (*models.Binding, error) {
	if err := s.validateShape(req); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}

	release := s.locks.Acquire(requestScopeKeys(req)...)
	defer release()

	resolved, err := s.admission.ValidateUpdate(ctx, req, existing.ID)
	if err != nil {
		return nil, err
	}

	binding := bindingFromResolved(resolved)
	binding.ID = existing.ID
	binding.UUID = existing.UUID
	binding.CreatedAt = existing.CreatedAt
	if err := s.bindings.Update(ctx, binding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update binding")
	}
	return binding, nil
}

// Delete tombstones a binding.
func (s *BindingService) Delete(ctx context.Context, publicID string) error {
	existing, err := s.Get(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.bindings.SoftDelete(ctx, existing.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete binding")
	}
	return nil
}

// validateShape checks payload structure: required fields plus the exactly-
// one-of class/class-band invariant.
func (s *BindingService) validateShape(req BindingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid binding payload")
	}
	hasClass := req.ClassUUID != nil && *req.ClassUUID != ""
	hasBand := req.ClassBandUUID != nil && *req.ClassBandUUID != ""
	if hasClass == hasBand {
		return appErrors.Clone(appErrors.ErrValidation, "binding requires exactly one of class or class band")
	}
	return nil
}

// requestScopeKeys derives the lock keys for the request's scopes. Public
// uuids are fine as key material; the locks only need to agree between
// requests naming the same entities.
func requestScopeKeys(req BindingRequest) []string {
	plan := ""
	if req.PlanSettingsID != nil {
		plan = *req.PlanSettingsID
	}
	keys := make([]string, 0, 4)
	if req.TeacherUUID != "" {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", models.ScopeTeacher, req.TeacherUUID, plan))
	}
	if req.RoomUUID != "" {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", models.ScopeRoom, req.RoomUUID, plan))
	}
	if req.ClassUUID != nil && *req.ClassUUID != "" {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", models.ScopeClass, *req.ClassUUID, plan))
	}
	if req.ClassBandUUID != nil && *req.ClassBandUUID != "" {
		keys = append(keys, fmt.Sprintf("%s|%s|%s", models.ScopeClassBand, *req.ClassBandUUID, plan))
	}
	return keys
}

func bindingFromResolved(resolved *ResolvedBinding) *models.Binding {
	return &models.Binding{
		OrganizationID: resolved.OrganizationID,
		TeacherID:      resolved.TeacherID,
		SubjectID:      resolved.SubjectID,
		RoomID:         resolved.RoomID,
		ClassID:        resolved.ClassID,
		ClassBandID:    resolved.ClassBandID,
		PlanSettingsID: resolved.PlanSettingsID,
		PeriodsPerWeek: resolved.PeriodsPerWeek,
		IsFixed:        resolved.IsFixed,
		Priority:       resolved.Priority,
	}
}
