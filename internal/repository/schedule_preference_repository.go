package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nara-edu/timetable-api/internal/models"
)

// SchedulePreferenceRepository persists per-slot directive records.
type SchedulePreferenceRepository struct {
	db *sqlx.DB
}

// NewSchedulePreferenceRepository constructs the repository.
func NewSchedulePreferenceRepository(db *sqlx.DB) *SchedulePreferenceRepository {
	return &SchedulePreferenceRepository{db: db}
}

const preferenceColumns = `id, organization_id, plan_settings_id, period_id, day_of_week,
       teacher_id, room_id, class_id, rule_id,
       is_available, must_schedule_class, must_not_schedule_class, prefers_to_schedule_class,
       prefers_not_to_schedule_class, cannot_teach, prefers_to_teach, must_teach, dont_prefer_to_teach,
       applies, modified_by, created_at, updated_at, deleted_at`

// FindByOwnerSlot returns the active record for (owner, period, day).
func (r *SchedulePreferenceRepository) FindByOwnerSlot(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) (*models.SchedulePreference, error) {
	column, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM schedule_preferences
WHERE %s = $1 AND period_id = $2 AND day_of_week = $3 AND deleted_at IS NULL`, preferenceColumns, column)
	var pref models.SchedulePreference
	if err := r.db.GetContext(ctx, &pref, query, owner.ID, periodID, dayOfWeek); err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListActiveByOwner returns every live preference record the owner holds.
func (r *SchedulePreferenceRepository) ListActiveByOwner(ctx context.Context, owner models.PreferenceOwner) ([]models.SchedulePreference, error) {
	column, err := ownerColumn(owner.Kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM schedule_preferences
WHERE %s = $1 AND deleted_at IS NULL
ORDER BY day_of_week ASC, period_id ASC`, preferenceColumns, column)
	var prefs []models.SchedulePreference
	if err := r.db.SelectContext(ctx, &prefs, query, owner.ID); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Create inserts a new preference record.
func (r *SchedulePreferenceRepository) Create(ctx context.Context, pref *models.SchedulePreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now
	const query = `INSERT INTO schedule_preferences (id, organization_id, plan_settings_id, period_id, day_of_week,
		teacher_id, room_id, class_id, rule_id,
		is_available, must_schedule_class, must_not_schedule_class, prefers_to_schedule_class,
		prefers_not_to_schedule_class, cannot_teach, prefers_to_teach, must_teach, dont_prefer_to_teach,
		applies, modified_by, created_at, updated_at)
		VALUES (:id, :organization_id, :plan_settings_id, :period_id, :day_of_week,
		:teacher_id, :room_id, :class_id, :rule_id,
		:is_available, :must_schedule_class, :must_not_schedule_class, :prefers_to_schedule_class,
		:prefers_not_to_schedule_class, :cannot_teach, :prefers_to_teach, :must_teach, :dont_prefer_to_teach,
		:applies, :modified_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("create schedule preference: %w", err)
	}
	return nil
}

// Update rewrites the flags of an existing record in place.
func (r *SchedulePreferenceRepository) Update(ctx context.Context, pref *models.SchedulePreference) error {
	pref.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_preferences
		SET is_available = :is_available, must_schedule_class = :must_schedule_class,
		    must_not_schedule_class = :must_not_schedule_class, prefers_to_schedule_class = :prefers_to_schedule_class,
		    prefers_not_to_schedule_class = :prefers_not_to_schedule_class, cannot_teach = :cannot_teach,
		    prefers_to_teach = :prefers_to_teach, must_teach = :must_teach, dont_prefer_to_teach = :dont_prefer_to_teach,
		    applies = :applies, modified_by = :modified_by, updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`
	result, err := r.db.NamedExecContext(ctx, query, pref)
	if err != nil {
		return fmt.Errorf("update schedule preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated preference rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Tombstone soft-deletes the active record for (owner, period, day).
func (r *SchedulePreferenceRepository) Tombstone(ctx context.Context, owner models.PreferenceOwner, periodID string, dayOfWeek int) error {
	column, err := ownerColumn(owner.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE schedule_preferences SET deleted_at = $1
WHERE %s = $2 AND period_id = $3 AND day_of_week = $4 AND deleted_at IS NULL`, column)
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), owner.ID, periodID, dayOfWeek)
	if err != nil {
		return fmt.Errorf("tombstone schedule preference: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check tombstoned preference rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkCreate inserts a batch of default records, one statement per row inside
// a single transaction.
func (r *SchedulePreferenceRepository) BulkCreate(ctx context.Context, prefs []models.SchedulePreference) error {
	if len(prefs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk preference insert: %w", err)
	}
	const query = `INSERT INTO schedule_preferences (id, organization_id, plan_settings_id, period_id, day_of_week,
		teacher_id, room_id, class_id, rule_id,
		is_available, must_schedule_class, must_not_schedule_class, prefers_to_schedule_class,
		prefers_not_to_schedule_class, cannot_teach, prefers_to_teach, must_teach, dont_prefer_to_teach,
		applies, modified_by, created_at, updated_at)
		VALUES (:id, :organization_id, :plan_settings_id, :period_id, :day_of_week,
		:teacher_id, :room_id, :class_id, :rule_id,
		:is_available, :must_schedule_class, :must_not_schedule_class, :prefers_to_schedule_class,
		:prefers_not_to_schedule_class, :cannot_teach, :prefers_to_teach, :must_teach, :dont_prefer_to_teach,
		:applies, :modified_by, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range prefs {
		if prefs[i].ID == "" {
			prefs[i].ID = uuid.NewString()
		}
		prefs[i].CreatedAt = now
		prefs[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, prefs[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk create schedule preference: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk preference insert: %w", err)
	}
	return nil
}

func ownerColumn(kind models.PreferenceOwnerKind) (string, error) {
	switch kind {
	case models.OwnerTeacher:
		return "teacher_id", nil
	case models.OwnerRoom:
		return "room_id", nil
	case models.OwnerClass:
		return "class_id", nil
	case models.OwnerRule:
		return "rule_id", nil
	default:
		return "", fmt.Errorf("unknown preference owner kind %q", kind)
	}
}
