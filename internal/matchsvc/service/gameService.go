package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type gameStore interface {
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	GetGame(ctx context.Context, orgID, gameID string) (*models.Game, error)
	ListGames(ctx context.Context, orgID string) ([]*models.Game, error)
	UpdateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	DeleteGame(ctx context.Context, orgID, gameID string) (bool, error)
}

type members interface {
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
}

type GameService struct {
	games      gameStore
	formations formationStore
	members    members
}

func NewGameService(games gameStore, formations formationStore, members members) *GameService {
	return &GameService{games: games, formations: formations, members: members}
}

type CreateGameInput struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Venue string `json:"venue"`
}

type UpdateGameInput struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Venue string `json:"venue"`
}

func (s *GameService) requireMember(ctx context.Context, orgID, actorID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}
	ok, err := s.members.IsMember(ctx, orgID, actorID)
	if err != nil {
		return fmt.Errorf("%w: membership check: %s", ErrTransient, err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

func validateGameInput(date, gameTime, venue string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: invalid date %q", ErrValidationFailed, date)
	}
	if _, err := time.Parse("15:04", gameTime); err != nil {
		return fmt.Errorf("%w: invalid time %q", ErrValidationFailed, gameTime)
	}
	if venue == "" {
		return fmt.Errorf("%w: venue is required", ErrValidationFailed)
	}
	return nil
}

// CreateGame may be called by any organization member. The game starts
// PENDING with no responses and no formation.
func (s *GameService) CreateGame(ctx context.Context, actorID, orgID string, in CreateGameInput) (*models.Game, error) {
	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if err := validateGameInput(in.Date, in.Time, in.Venue); err != nil {
		return nil, err
	}

	game := &models.Game{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		CreatorID: actorID,
		Date:      in.Date,
		Time:      in.Time,
		Venue:     in.Venue,
		Status:    models.GameStatusPending,
		Responses: []models.Response{},
	}

	created, err := s.games.CreateGame(ctx, game)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	return created, nil
}

func (s *GameService) GetGame(ctx context.Context, orgID, gameID string) (*models.Game, error) {
	game, err := s.games.GetGame(ctx, orgID, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if game == nil {
		return nil, ErrNotFound
	}
	return game, nil
}

func (s *GameService) ListGames(ctx context.Context, orgID string) ([]*models.Game, error) {
	games, err := s.games.ListGames(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	return games, nil
}

// ownedGame loads the game and checks the actor is its creator.
func (s *GameService) ownedGame(ctx context.Context, actorID, orgID, gameID string) (*models.Game, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	game, err := s.GetGame(ctx, orgID, gameID)
	if err != nil {
		return nil, err
	}
	if game.CreatorID != actorID {
		return nil, ErrUnauthorized
	}
	return game, nil
}

func (s *GameService) UpdateGame(ctx context.Context, actorID, orgID, gameID string, in UpdateGameInput) (*models.Game, error) {
	game, err := s.ownedGame(ctx, actorID, orgID, gameID)
	if err != nil {
		return nil, err
	}
	if err := validateGameInput(in.Date, in.Time, in.Venue); err != nil {
		return nil, err
	}

	game.Date = in.Date
	game.Time = in.Time
	game.Venue = in.Venue

	return s.commit(ctx, game)
}

// RespondToGame upserts the actor's availability: one response per user,
// a later call replaces the earlier answer.
func (s *GameService) RespondToGame(ctx context.Context, actorID, orgID, gameID string, isAvailable bool) (*models.Game, error) {
	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	game, err := s.GetGame(ctx, orgID, gameID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range game.Responses {
		if game.Responses[i].UserID == actorID {
			game.Responses[i].IsAvailable = isAvailable
			replaced = true
			break
		}
	}
	if !replaced {
		game.Responses = append(game.Responses, models.Response{UserID: actorID, IsAvailable: isAvailable})
	}

	return s.commit(ctx, game)
}

func (s *GameService) ConfirmGame(ctx context.Context, actorID, orgID, gameID, note string) (*models.Game, error) {
	return s.transition(ctx, actorID, orgID, gameID, note, models.GameStatusConfirmed)
}

func (s *GameService) CancelGame(ctx context.Context, actorID, orgID, gameID, note string) (*models.Game, error) {
	return s.transition(ctx, actorID, orgID, gameID, note, models.GameStatusCancelled)
}

func (s *GameService) CompleteGame(ctx context.Context, actorID, orgID, gameID, note string) (*models.Game, error) {
	return s.transition(ctx, actorID, orgID, gameID, note, models.GameStatusCompleted)
}

// transition enforces the status lifecycle: PENDING may be confirmed or
// cancelled, CONFIRMED may be completed or cancelled, CANCELLED and
// COMPLETED are terminal.
func (s *GameService) transition(ctx context.Context, actorID, orgID, gameID, note, target string) (*models.Game, error) {
	game, err := s.ownedGame(ctx, actorID, orgID, gameID)
	if err != nil {
		return nil, err
	}

	allowed := map[string][]string{
		models.GameStatusPending:   {models.GameStatusConfirmed, models.GameStatusCancelled},
		models.GameStatusConfirmed: {models.GameStatusCompleted, models.GameStatusCancelled},
	}

	ok := false
	for _, next := range allowed[game.Status] {
		if next == target {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot move game from %s to %s", ErrValidationFailed, game.Status, target)
	}

	game.Status = target
	if note != "" {
		game.Notes = note
	}

	return s.commit(ctx, game)
}

// DeleteGame removes the game and cascades to its formation. The returned
// formation, if any, lets the caller publish the cascade deletion.
func (s *GameService) DeleteGame(ctx context.Context, actorID, orgID, gameID string) (*models.Formation, error) {
	game, err := s.ownedGame(ctx, actorID, orgID, gameID)
	if err != nil {
		return nil, err
	}

	formation, err := s.formations.GetFormationByGame(ctx, orgID, game.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}

	// the game row goes first: losing a delete race must not cascade to a
	// formation some other delete already announced
	deleted, err := s.games.DeleteGame(ctx, orgID, game.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if !deleted {
		return nil, ErrNotFound
	}

	if formation != nil {
		if _, err := s.formations.DeleteFormationByGame(ctx, orgID, game.ID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTransient, err)
		}
	}

	return formation, nil
}

func (s *GameService) commit(ctx context.Context, game *models.Game) (*models.Game, error) {
	updated, err := s.games.UpdateGame(ctx, game)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}
