package models

import "time"

// PreferenceOwnerKind names the entity a slot preference belongs to.
type PreferenceOwnerKind string

const (
	OwnerTeacher PreferenceOwnerKind = "teacher"
	OwnerRoom    PreferenceOwnerKind = "room"
	OwnerClass   PreferenceOwnerKind = "class"
	OwnerRule    PreferenceOwnerKind = "rule"
)

// PreferenceOwner identifies the owning association of a slot preference.
type PreferenceOwner struct {
	Kind PreferenceOwnerKind `json:"kind"`
	ID   string              `json:"id"`
}

// SchedulingDirective is the mutually exclusive class-scheduling stance an
// owner takes on a slot.
type SchedulingDirective string

const (
	SchedulingUnconstrained SchedulingDirective = "UNCONSTRAINED"
	MustSchedule            SchedulingDirective = "MUST_SCHEDULE"
	MustNotSchedule         SchedulingDirective = "MUST_NOT_SCHEDULE"
	PrefersSchedule         SchedulingDirective = "PREFERS_SCHEDULE"
	PrefersNotSchedule      SchedulingDirective = "PREFERS_NOT_SCHEDULE"
)

// TeachingDirective is the mutually exclusive teaching stance for a slot.
type TeachingDirective string

const (
	TeachingUnconstrained TeachingDirective = "UNCONSTRAINED"
	MustTeach             TeachingDirective = "MUST_TEACH"
	CannotTeach           TeachingDirective = "CANNOT_TEACH"
	PrefersTeach          TeachingDirective = "PREFERS_TEACH"
	PrefersNotTeach       TeachingDirective = "PREFERS_NOT_TEACH"
)

// Preference flag names accepted by the upsert API. The flags persist as
// independent boolean columns; contradiction within a directive group is
// prevented at the write boundary, not by the schema.
const (
	FlagIsAvailable            = "isAvailable"
	FlagMustScheduleClass      = "mustScheduleClass"
	FlagMustNotScheduleClass   = "mustNotScheduleClass"
	FlagPrefersToScheduleClass = "prefersToScheduleClass"
	FlagPrefersNotToSchedule   = "prefersNotToScheduleClass"
	FlagCannotTeach            = "cannotTeach"
	FlagPrefersToTeach         = "prefersToTeach"
	FlagMustTeach              = "mustTeach"
	FlagDontPreferToTeach      = "dontPreferToTeach"
	FlagApplies                = "applies"
)

// SchedulePreference records directive flags for one (owner, period, day)
// slot, scoped to an organization and plan setting. At most one active record
// per key is expected; clearing tombstones rather than deletes.
type SchedulePreference struct {
	ID             string  `db:"id" json:"id"`
	OrganizationID string  `db:"organization_id" json:"organization_id"`
	PlanSettingsID *string `db:"plan_settings_id" json:"plan_settings_id,omitempty"`
	PeriodID       string  `db:"period_id" json:"period_id"`
	DayOfWeek      int     `db:"day_of_week" json:"day_of_week"`

	TeacherID *string `db:"teacher_id" json:"teacher_id,omitempty"`
	RoomID    *string `db:"room_id" json:"room_id,omitempty"`
	ClassID   *string `db:"class_id" json:"class_id,omitempty"`
	RuleID    *string `db:"rule_id" json:"rule_id,omitempty"`

	IsAvailable               bool `db:"is_available" json:"is_available"`
	MustScheduleClass         bool `db:"must_schedule_class" json:"must_schedule_class"`
	MustNotScheduleClass      bool `db:"must_not_schedule_class" json:"must_not_schedule_class"`
	PrefersToScheduleClass    bool `db:"prefers_to_schedule_class" json:"prefers_to_schedule_class"`
	PrefersNotToScheduleClass bool `db:"prefers_not_to_schedule_class" json:"prefers_not_to_schedule_class"`
	CannotTeach               bool `db:"cannot_teach" json:"cannot_teach"`
	PrefersToTeach            bool `db:"prefers_to_teach" json:"prefers_to_teach"`
	MustTeach                 bool `db:"must_teach" json:"must_teach"`
	DontPreferToTeach         bool `db:"dont_prefer_to_teach" json:"dont_prefer_to_teach"`
	Applies                   bool `db:"applies" json:"applies"`

	ModifiedBy string     `db:"modified_by" json:"modified_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// SchedulingDirective derives the scheduling stance from the stored flags.
// Precedence mirrors write-boundary exclusivity; stored rows predating it
// resolve must over prefers and negative over positive.
func (p *SchedulePreference) SchedulingDirective() SchedulingDirective {
	switch {
	case p.MustNotScheduleClass:
		return MustNotSchedule
	case p.MustScheduleClass:
		return MustSchedule
	case p.PrefersNotToScheduleClass:
		return PrefersNotSchedule
	case p.PrefersToScheduleClass:
		return PrefersSchedule
	default:
		return SchedulingUnconstrained
	}
}

// TeachingDirective derives the teaching stance from the stored flags.
func (p *SchedulePreference) TeachingDirective() TeachingDirective {
	switch {
	case p.CannotTeach:
		return CannotTeach
	case p.MustTeach:
		return MustTeach
	case p.DontPreferToTeach:
		return PrefersNotTeach
	case p.PrefersToTeach:
		return PrefersTeach
	default:
		return TeachingUnconstrained
	}
}

// SetFlag applies a named flag, clearing the other flags of the same
// directive group so contradictory stances cannot coexist on one record.
// Returns false for unknown flag names.
func (p *SchedulePreference) SetFlag(name string, value bool) bool {
	switch name {
	case FlagIsAvailable:
		p.IsAvailable = value
	case FlagApplies:
		p.Applies = value
	case FlagMustScheduleClass, FlagMustNotScheduleClass, FlagPrefersToScheduleClass, FlagPrefersNotToSchedule:
		if value {
			p.MustScheduleClass = false
			p.MustNotScheduleClass = false
			p.PrefersToScheduleClass = false
			p.PrefersNotToScheduleClass = false
		}
		switch name {
		case FlagMustScheduleClass:
			p.MustScheduleClass = value
		case FlagMustNotScheduleClass:
			p.MustNotScheduleClass = value
		case FlagPrefersToScheduleClass:
			p.PrefersToScheduleClass = value
		case FlagPrefersNotToSchedule:
			p.PrefersNotToScheduleClass = value
		}
	case FlagCannotTeach, FlagPrefersToTeach, FlagMustTeach, FlagDontPreferToTeach:
		if value {
			p.CannotTeach = false
			p.PrefersToTeach = false
			p.MustTeach = false
			p.DontPreferToTeach = false
		}
		switch name {
		case FlagCannotTeach:
			p.CannotTeach = value
		case FlagPrefersToTeach:
			p.PrefersToTeach = value
		case FlagMustTeach:
			p.MustTeach = value
		case FlagDontPreferToTeach:
			p.DontPreferToTeach = value
		}
	default:
		return false
	}
	return true
}
