package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Period types that carry no teaching load.
const (
	PeriodTypeBreak = "Break"
	PeriodTypeLunch = "Lunch"
)

// Period is a named time-slot definition within an organization's catalog,
// e.g. "Period 3" on Monday through Friday.
type Period struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organization_id"`
	PlanSettingsID *string        `db:"plan_settings_id" json:"plan_settings_id,omitempty"`
	Name           string         `db:"name" json:"name"`
	PeriodNumber   int            `db:"period_number" json:"period_number"`
	PeriodType     string         `db:"period_type" json:"period_type"`
	Days           types.JSONText `db:"days" json:"days"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsTeaching reports whether the period carries teaching load.
func (p Period) IsTeaching() bool {
	return p.PeriodType != PeriodTypeBreak && p.PeriodType != PeriodTypeLunch
}

// DayNumbers decodes the applicable days-of-week (1=Monday .. 7=Sunday).
func (p Period) DayNumbers() []int {
	if len(p.Days) == 0 {
		return nil
	}
	var days []int
	if err := json.Unmarshal(p.Days, &days); err != nil {
		return nil
	}
	return days
}
