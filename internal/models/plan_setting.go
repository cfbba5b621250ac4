package models

import "time"

// Fallback capacity values applied when an organization carries no usable
// plan setting. 5 days x 8 periods keeps legacy rows admissible.
const (
	DefaultDaysPerWeek   = 5
	DefaultPeriodsPerDay = 8
)

// PlanSetting is an organization's scheduling configuration for a category
// and validity window. daysPerWeek x periodsPerDay defines the weekly slot
// capacity every workload comparison runs against.
type PlanSetting struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Category       string     `db:"category" json:"category"`
	DaysPerWeek    int        `db:"days_per_week" json:"days_per_week"`
	PeriodsPerDay  int        `db:"periods_per_day" json:"periods_per_day"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// TotalSlots returns daysPerWeek x periodsPerDay, falling back to the
// defaults when either value is non-positive.
func (p *PlanSetting) TotalSlots() int {
	if p == nil {
		return DefaultDaysPerWeek * DefaultPeriodsPerDay
	}
	days := p.DaysPerWeek
	if days <= 0 {
		days = DefaultDaysPerWeek
	}
	periods := p.PeriodsPerDay
	if periods <= 0 {
		periods = DefaultPeriodsPerDay
	}
	return days * periods
}
