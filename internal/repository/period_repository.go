package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nara-edu/timetable-api/internal/models"
)

// PeriodRepository reads the per-organization period catalog.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListByOrganization returns the active period catalog ordered by number.
func (r *PeriodRepository) ListByOrganization(ctx context.Context, organizationID string) ([]models.Period, error) {
	const query = `SELECT id, organization_id, plan_settings_id, name, period_number, period_type, days,
       created_at, updated_at, deleted_at
FROM periods WHERE organization_id = $1 AND deleted_at IS NULL
ORDER BY period_number ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, organizationID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// ListByPlanSetting returns active periods attached to a plan setting.
func (r *PeriodRepository) ListByPlanSetting(ctx context.Context, planSettingsID string) ([]models.Period, error) {
	const query = `SELECT id, organization_id, plan_settings_id, name, period_number, period_type, days,
       created_at, updated_at, deleted_at
FROM periods WHERE plan_settings_id = $1 AND deleted_at IS NULL
ORDER BY period_number ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, planSettingsID); err != nil {
		return nil, fmt.Errorf("list plan-setting periods: %w", err)
	}
	return periods, nil
}
