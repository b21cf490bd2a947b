package models

import "time"

// Game statuses. Only the creator moves a game between them.
const (
	GameStatusPending   = "PENDING"
	GameStatusConfirmed = "CONFIRMED"
	GameStatusCancelled = "CANCELLED"
	GameStatusCompleted = "COMPLETED"
)

type Game struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"org_id"`
	CreatorID string     `json:"creator_id"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Time      string     `json:"time"` // HH:MM
	Venue     string     `json:"venue"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	Responses []Response `json:"responses"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Response is one member's availability for a game. At most one per user.
type Response struct {
	UserID      string `json:"user_id"`
	IsAvailable bool   `json:"is_available"`
}
