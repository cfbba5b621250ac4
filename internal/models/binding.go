package models

import "time"

// ScopeKind selects the entity axis a workload total is aggregated over.
type ScopeKind string

const (
	ScopeTeacher   ScopeKind = "teacher"
	ScopeRoom      ScopeKind = "room"
	ScopeClass     ScopeKind = "class"
	ScopeClassBand ScopeKind = "class_band"
)

// Scope identifies the (kind, id, plan-setting) triple workload totals and
// capacity are computed against. A nil PlanSettingsID means organization-wide.
type Scope struct {
	Kind           ScopeKind
	ID             string
	PlanSettingsID *string
}

// Binding is the assignable unit: a teacher teaching a subject to exactly one
// of a class or a class band, in a room, for a weekly period count.
type Binding struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	TeacherID      string     `db:"teacher_id" json:"teacher_id"`
	SubjectID      string     `db:"subject_id" json:"subject_id"`
	RoomID         string     `db:"room_id" json:"room_id"`
	ClassID        *string    `db:"class_id" json:"class_id,omitempty"`
	ClassBandID    *string    `db:"class_band_id" json:"class_band_id,omitempty"`
	PlanSettingsID *string    `db:"plan_settings_id" json:"plan_settings_id,omitempty"`
	PeriodsPerWeek int        `db:"periods_per_week" json:"periods_per_week"`
	IsFixed        bool       `db:"is_fixed" json:"is_fixed"`
	Priority       int        `db:"priority" json:"priority"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// BindingFilter describes query params for listing bindings.
type BindingFilter struct {
	OrganizationID string
	TeacherID      string
	RoomID         string
	ClassID        string
	ClassBandID    string
	PlanSettingsID string
	Page           int
	PageSize       int
}

// BindingDetail enriches a binding with display names for listings/exports.
type BindingDetail struct {
	Binding
	TeacherName   string  `db:"teacher_name" json:"teacher_name"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	RoomName      string  `db:"room_name" json:"room_name"`
	ClassName     *string `db:"class_name" json:"class_name,omitempty"`
	ClassBandName *string `db:"class_band_name" json:"class_band_name,omitempty"`
}
