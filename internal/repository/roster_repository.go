package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/nara-edu/timetable-api/internal/models"
)

// RosterRepository resolves roster entities (teachers, subjects, rooms,
// classes, class bands, rules) by public uuid for the identity resolver, and
// by internal id for structural checks.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// FindTeacherByUUID returns an active teacher by public uuid.
func (r *RosterRepository) FindTeacherByUUID(ctx context.Context, publicID string) (*models.Teacher, error) {
	const query = `SELECT id, uuid, organization_id, full_name, email, active, created_at, updated_at, deleted_at
FROM teachers WHERE uuid = $1 AND deleted_at IS NULL`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, publicID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindSubjectByUUID returns an active subject by public uuid.
func (r *RosterRepository) FindSubjectByUUID(ctx context.Context, publicID string) (*models.Subject, error) {
	const query = `SELECT id, uuid, organization_id, name, created_at, deleted_at
FROM subjects WHERE uuid = $1 AND deleted_at IS NULL`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, publicID); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindRoomByUUID returns an active room by public uuid.
func (r *RosterRepository) FindRoomByUUID(ctx context.Context, publicID string) (*models.Room, error) {
	const query = `SELECT id, uuid, organization_id, name, capacity, created_at, deleted_at
FROM rooms WHERE uuid = $1 AND deleted_at IS NULL`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, publicID); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindRoomByID returns an active room by internal id.
func (r *RosterRepository) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, uuid, organization_id, name, capacity, created_at, deleted_at
FROM rooms WHERE id = $1 AND deleted_at IS NULL`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindClassByUUID returns an active class by public uuid.
func (r *RosterRepository) FindClassByUUID(ctx context.Context, publicID string) (*models.Class, error) {
	const query = `SELECT id, uuid, organization_id, name, student_count, created_at, deleted_at
FROM classes WHERE uuid = $1 AND deleted_at IS NULL`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, publicID); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindClassByID returns an active class by internal id.
func (r *RosterRepository) FindClassByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, uuid, organization_id, name, student_count, created_at, deleted_at
FROM classes WHERE id = $1 AND deleted_at IS NULL`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindClassBandByUUID returns an active class band by public uuid.
func (r *RosterRepository) FindClassBandByUUID(ctx context.Context, publicID string) (*models.ClassBand, error) {
	const query = `SELECT id, uuid, organization_id, name, created_at, deleted_at
FROM class_bands WHERE uuid = $1 AND deleted_at IS NULL`
	var band models.ClassBand
	if err := r.db.GetContext(ctx, &band, query, publicID); err != nil {
		return nil, err
	}
	return &band, nil
}

// FindRuleByUUID returns an active rule by public uuid.
func (r *RosterRepository) FindRuleByUUID(ctx context.Context, publicID string) (*models.Rule, error) {
	const query = `SELECT id, uuid, organization_id, name, created_at, deleted_at
FROM rules WHERE uuid = $1 AND deleted_at IS NULL`
	var rule models.Rule
	if err := r.db.GetContext(ctx, &rule, query, publicID); err != nil {
		return nil, err
	}
	return &rule, nil
}
