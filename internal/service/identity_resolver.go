package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/nara-edu/timetable-api/internal/models"
	appErrors "github.com/nara-edu/timetable-api/pkg/errors"
)

type organizationReader interface {
	FindByUUID(ctx context.Context, publicID string) (*models.Organization, error)
}

type rosterReader interface {
	FindTeacherByUUID(ctx context.Context, publicID string) (*models.Teacher, error)
	FindSubjectByUUID(ctx context.Context, publicID string) (*models.Subject, error)
	FindRoomByUUID(ctx context.Context, publicID string) (*models.Room, error)
	FindClassByUUID(ctx context.Context, publicID string) (*models.Class, error)
	FindClassBandByUUID(ctx context.Context, publicID string) (*models.ClassBand, error)
}

// BindingRequest is the public-uuid payload callers submit for validation.
type BindingRequest struct {
	OrganizationUUID string  `json:"organization_uuid" validate:"required,uuid"`
	TeacherUUID      string  `json:"teacher_uuid" validate:"omitempty,uuid"`
	SubjectUUID      string  `json:"subject_uuid" validate:"omitempty,uuid"`
	RoomUUID         string  `json:"room_uuid" validate:"omitempty,uuid"`
	ClassUUID        *string `json:"class_uuid,omitempty" validate:"omitempty,uuid"`
	ClassBandUUID    *string `json:"class_band_uuid,omitempty" validate:"omitempty,uuid"`
	PlanSettingsID   *string `json:"plan_settings_id,omitempty"`
	PeriodsPerWeek   int     `json:"periods_per_week" validate:"required,gt=0"`
	IsFixed          bool    `json:"is_fixed"`
	Priority         int     `json:"priority"`
}

// ResolvedBinding carries the internal ids every admission check consumes.
// A zero id means the reference was absent or did not resolve; checks that
// depend on it skip rather than fail.
type ResolvedBinding struct {
	OrganizationID string
	TeacherID      string
	SubjectID      string
	RoomID         string
	ClassID        *string
	ClassBandID    *string
	PlanSettingsID *string
	PeriodsPerWeek int
	IsFixed        bool
	Priority       int
}

// IdentityResolver maps the public uuids of a binding request to internal ids
// in one pass, so downstream checks never repeat lookups.
type IdentityResolver struct {
	organizations organizationReader
	roster        rosterReader
	logger        *zap.Logger
}

// NewIdentityResolver constructs a resolver.
func NewIdentityResolver(organizations organizationReader, roster rosterReader, logger *zap.Logger) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityResolver{organizations: organizations, roster: roster, logger: logger}
}

// Resolve translates the request. The organization must resolve; every other
// reference degrades to a zero id when absent or unknown, and the dependent
// checks skip. Lookup failures other than no-rows are surfaced.
func (r *IdentityResolver) Resolve(ctx context.Context, req BindingRequest) (*ResolvedBinding, error) {
	org, err := r.organizations.FindByUUID(ctx, req.OrganizationUUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrOrganizationNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}

	resolved := &ResolvedBinding{
		OrganizationID: org.ID,
		PlanSettingsID: req.PlanSettingsID,
		PeriodsPerWeek: req.PeriodsPerWeek,
		IsFixed:        req.IsFixed,
		Priority:       req.Priority,
	}

	if req.TeacherUUID != "" {
		teacher, err := r.roster.FindTeacherByUUID(ctx, req.TeacherUUID)
		if err := r.noteMiss(err, "teacher", req.TeacherUUID); err != nil {
			return nil, err
		} else if teacher != nil {
			resolved.TeacherID = teacher.ID
		}
	}
	if req.SubjectUUID != "" {
		subject, err := r.roster.FindSubjectByUUID(ctx, req.SubjectUUID)
		if err := r.noteMiss(err, "subject", req.SubjectUUID); err != nil {
			return nil, err
		} else if subject != nil {
			resolved.SubjectID = subject.ID
		}
	}
	if req.RoomUUID != "" {
		room, err := r.roster.FindRoomByUUID(ctx, req.RoomUUID)
		if err := r.noteMiss(err, "room", req.RoomUUID); err != nil {
			return nil, err
		} else if room != nil {
			resolved.RoomID = room.ID
		}
	}
	if req.ClassUUID != nil && *req.ClassUUID != "" {
		class, err := r.roster.FindClassByUUID(ctx, *req.ClassUUID)
		if err := r.noteMiss(err, "class", *req.ClassUUID); err != nil {
			return nil, err
		} else if class != nil {
			resolved.ClassID = &class.ID
		}
	}
	if req.ClassBandUUID != nil && *req.ClassBandUUID != "" {
		band, err := r.roster.FindClassBandByUUID(ctx, *req.ClassBandUUID)
		if err := r.noteMiss(err, "class band", *req.ClassBandUUID); err != nil {
			return nil, err
		} else if band != nil {
			resolved.ClassBandID = &band.ID
		}
	}

	return resolved, nil
}

// noteMiss swallows no-rows (unresolvable reference, dependent checks skip)
// and passes through real failures.
func (r *IdentityResolver) noteMiss(err error, kind, publicID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("reference did not resolve, dependent checks will skip",
			zap.String("kind", kind), zap.String("uuid", publicID))
		return nil
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve "+kind)
}
