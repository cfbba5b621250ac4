package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nara-edu/timetable-api/internal/models"
)

func newBindingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBindingRepositorySumPeriodsByScope(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(periods_per_week), 0) FROM bindings WHERE teacher_id = $1 AND deleted_at IS NULL`)).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))

	total, err := repo.SumPeriodsByScope(context.Background(), models.Scope{Kind: models.ScopeTeacher, ID: "teacher-1"})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositorySumPeriodsByScopeWithPlanSetting(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	plan := "plan-1"
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(periods_per_week), 0) FROM bindings WHERE room_id = $1 AND deleted_at IS NULL AND plan_settings_id = $2`)).
		WithArgs("room-1", "plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

	total, err := repo.SumPeriodsByScope(context.Background(), models.Scope{Kind: models.ScopeRoom, ID: "room-1", PlanSettingsID: &plan})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositorySumPeriodsByScopeUnknownKind(t *testing.T) {
	db, _, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	_, err := repo.SumPeriodsByScope(context.Background(), models.Scope{Kind: "building", ID: "x"})
	assert.Error(t, err)
}

func TestBindingRepositoryCountByClassSubject(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bindings WHERE class_id = $1 AND subject_id = $2 AND deleted_at IS NULL`)).
		WithArgs("class-1", "subject-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountByClassSubject(context.Background(), "class-1", "subject-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bindings WHERE class_id = $1 AND subject_id = $2 AND deleted_at IS NULL AND id <> $3`)).
		WithArgs("class-1", "subject-1", "binding-9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err = repo.CountByClassSubject(context.Background(), "class-1", "subject-1", "binding-9")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectExec("INSERT INTO bindings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	classID := "class-1"
	binding := &models.Binding{
		OrganizationID: "org-1",
		TeacherID:      "teacher-1",
		SubjectID:      "subject-1",
		RoomID:         "room-1",
		ClassID:        &classID,
		PeriodsPerWeek: 4,
	}
	require.NoError(t, repo.Create(context.Background(), binding))
	assert.NotEmpty(t, binding.ID)
	assert.NotEmpty(t, binding.UUID)
	assert.False(t, binding.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectExec("UPDATE bindings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Binding{ID: "gone", TeacherID: "teacher-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bindings SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
		WithArgs(sqlmock.AnyArg(), "binding-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "binding-1"))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bindings SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`)).
		WithArgs(sqlmock.AnyArg(), "binding-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SoftDelete(context.Background(), "binding-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindingRepositoryFindByUUID(t *testing.T) {
	db, mock, cleanup := newBindingMock(t)
	defer cleanup()
	repo := NewBindingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "uuid", "organization_id", "teacher_id", "subject_id", "room_id", "class_id", "class_band_id", "plan_settings_id", "periods_per_week", "is_fixed", "priority", "created_at", "updated_at", "deleted_at"}).
		AddRow("binding-1", "uuid-1", "org-1", "teacher-1", "subject-1", "room-1", "class-1", nil, "plan-1", 4, false, 0, now, now, nil)
	mock.ExpectQuery("SELECT id, uuid, organization_id").
		WithArgs("uuid-1").
		WillReturnRows(rows)

	binding, err := repo.FindByUUID(context.Background(), "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "binding-1", binding.ID)
	assert.Equal(t, 4, binding.PeriodsPerWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}
