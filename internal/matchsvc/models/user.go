package models

import (
	"time"
)

// User represents the users table in the database. Only organization
// membership matters here; profile details live elsewhere.
type User struct {
	UserID    string    `json:"user_id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
