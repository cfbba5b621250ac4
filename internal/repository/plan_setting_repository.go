package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/nara-edu/timetable-api/internal/models"
)

// PlanSettingRepository reads scheduling configuration rows.
type PlanSettingRepository struct {
	db *sqlx.DB
}

// NewPlanSettingRepository constructs the repository.
func NewPlanSettingRepository(db *sqlx.DB) *PlanSettingRepository {
	return &PlanSettingRepository{db: db}
}

const planSettingColumns = `id, organization_id, category, days_per_week, periods_per_day,
       start_date, end_date, created_at, updated_at, deleted_at`

// FindByID returns an active plan setting by id.
func (r *PlanSettingRepository) FindByID(ctx context.Context, id string) (*models.PlanSetting, error) {
	const query = `SELECT ` + planSettingColumns + ` FROM plan_settings WHERE id = $1 AND deleted_at IS NULL`
	var setting models.PlanSetting
	if err := r.db.GetContext(ctx, &setting, query, id); err != nil {
		return nil, err
	}
	return &setting, nil
}

// FindDefaultByOrganization returns the organization's current default plan
// setting: the most recently started active row.
func (r *PlanSettingRepository) FindDefaultByOrganization(ctx context.Context, organizationID string) (*models.PlanSetting, error) {
	const query = `SELECT ` + planSettingColumns + ` FROM plan_settings
WHERE organization_id = $1 AND deleted_at IS NULL
ORDER BY start_date DESC NULLS LAST, created_at DESC
LIMIT 1`
	var setting models.PlanSetting
	if err := r.db.GetContext(ctx, &setting, query, organizationID); err != nil {
		return nil, err
	}
	return &setting, nil
}
