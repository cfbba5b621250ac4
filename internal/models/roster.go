package models

import "time"

// Roster entities are plain organization-scoped records. Each carries an
// internal id (primary key) and a public uuid used by API callers; validation
// resolves uuid to id once per request.

// Teacher is a member of the teaching staff.
type Teacher struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	FullName       string     `db:"full_name" json:"full_name"`
	Email          string     `db:"email" json:"email"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Subject is a taught discipline.
type Subject struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Room is a physical teaching space with a seating capacity.
type Room struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	Capacity       int        `db:"capacity" json:"capacity"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Class is a cohort of students scheduled as one unit.
type Class struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	StudentCount   int        `db:"student_count" json:"student_count"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ClassBand groups several classes taught together as a single unit, an
// alternative binding target to a single class.
type ClassBand struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Rule is an organization-level scheduling rule that may own slot preferences.
type Rule struct {
	ID             string     `db:"id" json:"id"`
	UUID           string     `db:"uuid" json:"uuid"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Name           string     `db:"name" json:"name"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
