package models

import "time"

// SlotCount is the number of positions in every formation: eleven slots
// numbered 1..11, slot 1 being the keeper.
const SlotCount = 11

// formationTypes enumerates the supported shapes. The outfield rows must sum
// to ten; the keeper takes the remaining slot.
var formationTypes = map[string]bool{
	"4-4-2": true,
	"4-3-3": true,
	"3-5-2": true,
	"4-5-1": true,
	"3-4-3": true,
	"5-3-2": true,
	"5-4-1": true,
}

func ValidFormationType(ft string) bool {
	return formationTypes[ft]
}

type Formation struct {
	ID            string     `json:"id"`
	OrgID         string     `json:"org_id"`
	GameID        string     `json:"game_id"`
	FormationType string     `json:"formation_type"`
	Positions     []Position `json:"positions"`
	LikeCount     int        `json:"like_count"`
	LikedBy       []string   `json:"liked_by"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Position is one slot on the field diagram. PlayerID is nil while the slot
// is unassigned.
type Position struct {
	Slot     int     `json:"slot"`
	PlayerID *string `json:"player_id"`
}

// EmptyPositions builds the initial slot map: slots 1..11, all unassigned.
func EmptyPositions() []Position {
	positions := make([]Position, 0, SlotCount)
	for slot := 1; slot <= SlotCount; slot++ {
		positions = append(positions, Position{Slot: slot})
	}
	return positions
}

// AssignPosition places a player at targetSlot on the given map. The player
// is first cleared from any slot they already occupy, then placed; whoever
// held targetSlot becomes unassigned. This keeps the one-slot-per-player
// invariant without a separate conflict scan.
func AssignPosition(positions []Position, targetSlot int, playerID string) []Position {
	for i := range positions {
		if positions[i].PlayerID != nil && *positions[i].PlayerID == playerID {
			positions[i].PlayerID = nil
		}
	}
	for i := range positions {
		if positions[i].Slot == targetSlot {
			p := playerID
			positions[i].PlayerID = &p
		}
	}
	return positions
}

// ClearPosition unassigns targetSlot, whoever holds it.
func ClearPosition(positions []Position, targetSlot int) []Position {
	for i := range positions {
		if positions[i].Slot == targetSlot {
			positions[i].PlayerID = nil
		}
	}
	return positions
}
