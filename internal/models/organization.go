package models

import "time"

// Organization is the tenant root. Every other entity is scoped to one.
type Organization struct {
	ID        string     `db:"id" json:"id"`
	UUID      string     `db:"uuid" json:"uuid"`
	Name      string     `db:"name" json:"name"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
