package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nara-edu/timetable-api/internal/models"
)

// OrganizationRepository reads tenant records.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs the repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindByID returns an active organization by internal id.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	const query = `SELECT id, uuid, name, active, created_at, updated_at, deleted_at
FROM organizations WHERE id = $1 AND deleted_at IS NULL`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByUUID returns an active organization by public uuid.
func (r *OrganizationRepository) FindByUUID(ctx context.Context, publicID string) (*models.Organization, error) {
	const query = `SELECT id, uuid, name, active, created_at, updated_at, deleted_at
FROM organizations WHERE uuid = $1 AND deleted_at IS NULL`
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, publicID); err != nil {
		return nil, err
	}
	return &org, nil
}

// ExistsActive reports whether the organization exists and is not soft-deleted.
func (r *OrganizationRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM organizations WHERE id = $1 AND deleted_at IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check organization: %w", err)
	}
	return true, nil
}
