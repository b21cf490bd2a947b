package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type formationStore interface {
	CreateFormation(ctx context.Context, f *models.Formation) (*models.Formation, error)
	GetFormation(ctx context.Context, orgID, formationID string) (*models.Formation, error)
	GetFormationByGame(ctx context.Context, orgID, gameID string) (*models.Formation, error)
	UpdateFormation(ctx context.Context, f *models.Formation) (*models.Formation, error)
	DeleteFormation(ctx context.Context, orgID, formationID string) (bool, error)
	DeleteFormationByGame(ctx context.Context, orgID, gameID string) (bool, error)
}

type FormationService struct {
	formations formationStore
	games      gameStore
	members    members
}

func NewFormationService(formations formationStore, games gameStore, members members) *FormationService {
	return &FormationService{formations: formations, games: games, members: members}
}

// gameAsCreator loads the game and requires the actor to be its creator:
// only the game creator touches that game's formation.
func (s *FormationService) gameAsCreator(ctx context.Context, actorID, orgID, gameID string) (*models.Game, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	game, err := s.games.GetGame(ctx, orgID, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if game == nil {
		return nil, ErrNotFound
	}
	if game.CreatorID != actorID {
		return nil, ErrUnauthorized
	}
	return game, nil
}

func (s *FormationService) CreateFormation(ctx context.Context, actorID, orgID, gameID, formationType string) (*models.Formation, error) {
	if _, err := s.gameAsCreator(ctx, actorID, orgID, gameID); err != nil {
		return nil, err
	}
	if !models.ValidFormationType(formationType) {
		return nil, fmt.Errorf("%w: unknown formation type %q", ErrValidationFailed, formationType)
	}

	f := &models.Formation{
		ID:            uuid.New().String(),
		OrgID:         orgID,
		GameID:        gameID,
		FormationType: formationType,
		Positions:     models.EmptyPositions(),
		LikedBy:       []string{},
	}

	created, err := s.formations.CreateFormation(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if created == nil {
		return nil, fmt.Errorf("%w: game %s already has a formation", ErrAlreadyExists, gameID)
	}
	return created, nil
}

func (s *FormationService) GetFormationByGame(ctx context.Context, orgID, gameID string) (*models.Formation, error) {
	f, err := s.formations.GetFormationByGame(ctx, orgID, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

// UpdateFormation applies the requested assignments onto the current map and
// commits the full map. An assignment with a player clears the player's
// previous slot first; an assignment with a nil player empties the slot.
func (s *FormationService) UpdateFormation(ctx context.Context, actorID, orgID, gameID string, assignments []models.Position) (*models.Formation, error) {
	if _, err := s.gameAsCreator(ctx, actorID, orgID, gameID); err != nil {
		return nil, err
	}
	f, err := s.GetFormationByGame(ctx, orgID, gameID)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if a.Slot < 1 || a.Slot > models.SlotCount {
			return nil, fmt.Errorf("%w: slot %d out of range", ErrValidationFailed, a.Slot)
		}
		if a.PlayerID == nil {
			f.Positions = models.ClearPosition(f.Positions, a.Slot)
			continue
		}
		f.Positions = models.AssignPosition(f.Positions, a.Slot, *a.PlayerID)
	}

	return s.commit(ctx, f)
}

// DeleteFormation returns the removed formation so the caller can publish
// the deletion keyed by its owning game.
func (s *FormationService) DeleteFormation(ctx context.Context, actorID, orgID, gameID string) (*models.Formation, error) {
	if _, err := s.gameAsCreator(ctx, actorID, orgID, gameID); err != nil {
		return nil, err
	}
	f, err := s.GetFormationByGame(ctx, orgID, gameID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.formations.DeleteFormation(ctx, orgID, f.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if !deleted {
		return nil, ErrNotFound
	}
	return f, nil
}

// LikeFormation toggles the actor's like. There is no separate unlike: a
// user already in the liked-by set is removed, anyone else is added. The
// count always equals the set size.
func (s *FormationService) LikeFormation(ctx context.Context, actorID, orgID, formationID string) (*models.Formation, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	ok, err := s.members.IsMember(ctx, orgID, actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: membership check: %s", ErrTransient, err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	f, err := s.formations.GetFormation(ctx, orgID, formationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if f == nil {
		return nil, ErrNotFound
	}

	f.LikedBy = toggleLike(f.LikedBy, actorID)
	f.LikeCount = len(f.LikedBy)

	return s.commit(ctx, f)
}

func (s *FormationService) commit(ctx context.Context, f *models.Formation) (*models.Formation, error) {
	updated, err := s.formations.UpdateFormation(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// toggleLike computes the new liked-by set deterministically from current
// membership.
func toggleLike(likedBy []string, userID string) []string {
	out := make([]string, 0, len(likedBy)+1)
	found := false
	for _, id := range likedBy {
		if id == userID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, userID)
	}
	return out
}
