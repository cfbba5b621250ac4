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

// BindingRepository persists teacher-subject-class bindings and answers the
// aggregate queries the admission checks run on.
type BindingRepository struct {
	db *sqlx.DB
}

// NewBindingRepository constructs the repository.
func NewBindingRepository(db *sqlx.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// FindByID returns an active binding by internal id.
func (r *BindingRepository) FindByID(ctx context.Context, id string) (*models.Binding, error) {
	const query = `SELECT id, uuid, organization_id, teacher_id, subject_id, room_id, class_id, class_band_id,
       plan_settings_id, periods_per_week, is_fixed, priority, created_at, updated_at, deleted_at
FROM bindings WHERE id = $1 AND deleted_at IS NULL`
	var binding models.Binding
	if err := r.db.GetContext(ctx, &binding, query, id); err != nil {
		return nil, err
	}
	return &binding, nil
}

// FindByUUID returns an active binding by public uuid.
func (r *BindingRepository) FindByUUID(ctx context.Context, publicID string) (*models.Binding, error) {
	const query = `SELECT id, uuid, organization_id, teacher_id, subject_id, room_id, class_id, class_band_id,
       plan_settings_id, periods_per_week, is_fixed, priority, created_at, updated_at, deleted_at
FROM bindings WHERE uuid = $1 AND deleted_at IS NULL`
	var binding models.Binding
	if err := r.db.GetContext(ctx, &binding, query, publicID); err != nil {
		return nil, err
	}
	return &binding, nil
}

// List returns bindings with display names, paginated.
func (r *BindingRepository) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	where := "b.deleted_at IS NULL"
	args := []interface{}{}
	idx := 1
	add := func(clause, value string) {
		where += fmt.Sprintf(" AND %s = $%d", clause, idx)
		args = append(args, value)
		idx++
	}
	if filter.OrganizationID != "" {
		add("b.organization_id", filter.OrganizationID)
	}
	if filter.TeacherID != "" {
		add("b.teacher_id", filter.TeacherID)
	}
	if filter.RoomID != "" {
		add("b.room_id", filter.RoomID)
	}
	if filter.ClassID != "" {
		add("b.class_id", filter.ClassID)
	}
	if filter.ClassBandID != "" {
		add("b.class_band_id", filter.ClassBandID)
	}
	if filter.PlanSettingsID != "" {
		add("b.plan_settings_id", filter.PlanSettingsID)
	}

	countQuery := "SELECT COUNT(*) FROM bindings b WHERE " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bindings: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `
SELECT b.id, b.uuid, b.organization_id, b.teacher_id, b.subject_id, b.room_id, b.class_id, b.class_band_id,
       b.plan_settings_id, b.periods_per_week, b.is_fixed, b.priority, b.created_at, b.updated_at, b.deleted_at,
       t.full_name AS teacher_name, s.name AS subject_name, rm.name AS room_name,
       c.name AS class_name, cb.name AS class_band_name
FROM bindings b
JOIN teachers t ON t.id = b.teacher_id
JOIN subjects s ON s.id = b.subject_id
JOIN rooms rm ON rm.id = b.room_id
LEFT JOIN classes c ON c.id = b.class_id
LEFT JOIN class_bands cb ON cb.id = b.class_band_id
WHERE ` + where + fmt.Sprintf(" ORDER BY t.full_name ASC, s.name ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	var bindings []models.BindingDetail
	if err := r.db.SelectContext(ctx, &bindings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bindings: %w", err)
	}
	return bindings, total, nil
}

// SumPeriodsByScope sums periods_per_week over active bindings in scope.
// A nil plan-settings id aggregates organization-wide.
func (r *BindingRepository) SumPeriodsByScope(ctx context.Context, scope models.Scope) (int, error) {
	column, err := scopeColumn(scope.Kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(periods_per_week), 0) FROM bindings WHERE %s = $1 AND deleted_at IS NULL`, column)
	args := []interface{}{scope.ID}
	if scope.PlanSettingsID != nil {
		query += " AND plan_settings_id = $2"
		args = append(args, *scope.PlanSettingsID)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum periods for %s scope: %w", scope.Kind, err)
	}
	return total, nil
}

// CountByTeacherSubjectClass counts active bindings for the exact
// (teacher, subject, class) triple.
func (r *BindingRepository) CountByTeacherSubjectClass(ctx context.Context, teacherID, subjectID, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bindings WHERE teacher_id = $1 AND subject_id = $2 AND class_id = $3 AND deleted_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, subjectID, classID); err != nil {
		return 0, fmt.Errorf("count teacher-subject-class bindings: %w", err)
	}
	return count, nil
}

// CountByTeacherSubjectClassBand counts active bindings for the exact
// (teacher, subject, class band) triple.
func (r *BindingRepository) CountByTeacherSubjectClassBand(ctx context.Context, teacherID, subjectID, classBandID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bindings WHERE teacher_id = $1 AND subject_id = $2 AND class_band_id = $3 AND deleted_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID, subjectID, classBandID); err != nil {
		return 0, fmt.Errorf("count teacher-subject-class-band bindings: %w", err)
	}
	return count, nil
}

// CountByClassSubject counts active bindings of the (class, subject) pair to
// any teacher, optionally excluding one binding id (the one being updated).
func (r *BindingRepository) CountByClassSubject(ctx context.Context, classID, subjectID, excludeID string) (int, error) {
	query := `SELECT COUNT(*) FROM bindings WHERE class_id = $1 AND subject_id = $2 AND deleted_at IS NULL`
	args := []interface{}{classID, subjectID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count class-subject bindings: %w", err)
	}
	return count, nil
}

// CountByClassBandSubject mirrors CountByClassSubject for class bands.
func (r *BindingRepository) CountByClassBandSubject(ctx context.Context, classBandID, subjectID, excludeID string) (int, error) {
	query := `SELECT COUNT(*) FROM bindings WHERE class_band_id = $1 AND subject_id = $2 AND deleted_at IS NULL`
	args := []interface{}{classBandID, subjectID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count class-band-subject bindings: %w", err)
	}
	return count, nil
}

// Create inserts a new binding.
func (r *BindingRepository) Create(ctx context.Context, binding *models.Binding) error {
	if binding.ID == "" {
		binding.ID = uuid.NewString()
	}
	if binding.UUID == "" {
		binding.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	binding.CreatedAt = now
	binding.UpdatedAt = now
	const query = `INSERT INTO bindings (id, uuid, organization_id, teacher_id, subject_id, room_id, class_id, class_band_id,
		plan_settings_id, periods_per_week, is_fixed, priority, created_at, updated_at)
		VALUES (:id, :uuid, :organization_id, :teacher_id, :subject_id, :room_id, :class_id, :class_band_id,
		:plan_settings_id, :periods_per_week, :is_fixed, :priority, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, binding); err != nil {
		return fmt.Errorf("create binding: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a binding.
func (r *BindingRepository) Update(ctx context.Context, binding *models.Binding) error {
	binding.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bindings
		SET teacher_id = :teacher_id, subject_id = :subject_id, room_id = :room_id,
		    class_id = :class_id, class_band_id = :class_band_id, plan_settings_id = :plan_settings_id,
		    periods_per_week = :periods_per_week, is_fixed = :is_fixed, priority = :priority,
		    updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`
	result, err := r.db.NamedExecContext(ctx, query, binding)
	if err != nil {
		return fmt.Errorf("update binding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated binding rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete tombstones a binding.
func (r *BindingRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE bindings SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted binding rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scopeColumn(kind models.ScopeKind) (string, error) {
	switch kind {
	case models.ScopeTeacher:
		return "teacher_id", nil
	case models.ScopeRoom:
		return "room_id", nil
	case models.ScopeClass:
		return "class_id", nil
	case models.ScopeClassBand:
		return "class_band_id", nil
	default:
		return "", fmt.Errorf("unknown scope kind %q", kind)
	}
}
