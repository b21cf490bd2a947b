package models

import "time"

// FormationComment is a discussion entry on a formation. Edit and delete are
// restricted to the author. LikeCount always equals len(LikedBy).
type FormationComment struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	FormationID string    `json:"formation_id"`
	AuthorID    string    `json:"author_id"`
	Text        string    `json:"text"`
	LikeCount   int       `json:"like_count"`
	LikedBy     []string  `json:"liked_by"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
