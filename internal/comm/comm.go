package comm

import (
	"encoding/json"
	"time"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "subscribe", "respond-game", "like-formation"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// Event is the envelope every mutation publishes. Data holds the canonical
// snapshot for the topic, always the full entity state, never a diff.
type Event struct {
	Topic string          `json:"topic"`
	OrgID string          `json:"org_id"`
	Data  json.RawMessage `json:"data"`
}

// EventKeys is the minimal decode of an event payload used for channel
// filtering: only the entity ids, whichever the payload carries.
type EventKeys struct {
	GameID      string `json:"game_id,omitempty"`
	FormationID string `json:"formation_id,omitempty"`
	CommentID   string `json:"comment_id,omitempty"`
}

type GameResponse struct {
	UserID      string `json:"user_id"`
	IsAvailable bool   `json:"is_available"`
}

type GameSnapshot struct {
	GameID    string         `json:"game_id"`
	CreatorID string         `json:"creator_id"`
	Date      string         `json:"date"`
	Time      string         `json:"time"`
	Venue     string         `json:"venue"`
	Status    string         `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	Responses []GameResponse `json:"responses"`
	Version   int64          `json:"version"`
}

type GameDeleted struct {
	GameID string `json:"game_id"`
}

type PositionSnapshot struct {
	Slot     int     `json:"slot"`
	PlayerID *string `json:"player_id"`
}

type FormationSnapshot struct {
	FormationID   string             `json:"formation_id"`
	GameID        string             `json:"game_id"`
	FormationType string             `json:"formation_type"`
	Positions     []PositionSnapshot `json:"positions"`
	Version       int64              `json:"version"`
}

// FormationDeleted carries the owning game id; viewers resolve their locally
// held formation id through the game they are watching.
type FormationDeleted struct {
	GameID string `json:"game_id"`
}

type FormationLike struct {
	FormationID    string   `json:"formation_id"`
	LikeCount      int      `json:"like_count"`
	LikedByUserIds []string `json:"liked_by_user_ids"`
	Version        int64    `json:"version"`
}

type CommentSnapshot struct {
	CommentID      string    `json:"comment_id"`
	FormationID    string    `json:"formation_id"`
	AuthorID       string    `json:"author_id"`
	Text           string    `json:"text"`
	LikeCount      int       `json:"like_count"`
	LikedByUserIds []string  `json:"liked_by_user_ids"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CommentDeleted struct {
	CommentID   string `json:"comment_id"`
	FormationID string `json:"formation_id"`
}

type CommentLike struct {
	CommentID      string   `json:"comment_id"`
	FormationID    string   `json:"formation_id"`
	LikeCount      int      `json:"like_count"`
	LikedByUserIds []string `json:"liked_by_user_ids"`
	Version        int64    `json:"version"`
}
