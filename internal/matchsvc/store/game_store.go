package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

// Responses live in a jsonb column on the game row, so a response upsert is
// a single-row read-modify-write with one version bump. No cross-entity
// transaction is ever taken.
func (s *GameStore) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	responses, err := json.Marshal(game.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responses: %w", err)
	}

	query := `
		INSERT INTO games (id, org_id, creator_id, game_date, game_time, venue, status, notes, responses, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
		RETURNING version, created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		game.ID, game.OrgID, game.CreatorID, game.Date, game.Time,
		game.Venue, game.Status, game.Notes, responses,
	).Scan(&game.Version, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

func (s *GameStore) GetGame(ctx context.Context, orgID, gameID string) (*models.Game, error) {
	query := `
		SELECT id, org_id, creator_id, game_date, game_time, venue, status, notes, responses, version, created_at, updated_at
		FROM games
		WHERE id = $1 AND org_id = $2
	`

	game := &models.Game{}
	var responses []byte
	err := s.db.QueryRow(ctx, query, gameID, orgID).Scan(
		&game.ID,
		&game.OrgID,
		&game.CreatorID,
		&game.Date,
		&game.Time,
		&game.Venue,
		&game.Status,
		&game.Notes,
		&responses,
		&game.Version,
		&game.CreatedAt,
		&game.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	if err := json.Unmarshal(responses, &game.Responses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
	}

	return game, nil
}

func (s *GameStore) ListGames(ctx context.Context, orgID string) ([]*models.Game, error) {
	query := `
		SELECT id, org_id, creator_id, game_date, game_time, venue, status, notes, responses, version, created_at, updated_at
		FROM games
		WHERE org_id = $1
		ORDER BY game_date, game_time
	`

	rows, err := s.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game := &models.Game{}
		var responses []byte
		err := rows.Scan(
			&game.ID,
			&game.OrgID,
			&game.CreatorID,
			&game.Date,
			&game.Time,
			&game.Venue,
			&game.Status,
			&game.Notes,
			&responses,
			&game.Version,
			&game.CreatedAt,
			&game.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(responses, &game.Responses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal responses: %w", err)
		}
		games = append(games, game)
	}

	return games, nil
}

// UpdateGame writes the full row back, bumping version. Last write wins;
// concurrent writers are serialized by the row lock only.
func (s *GameStore) UpdateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	responses, err := json.Marshal(game.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal responses: %w", err)
	}

	query := `
		UPDATE games
		SET game_date = $3, game_time = $4, venue = $5, status = $6, notes = $7,
		    responses = $8, version = version + 1, updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING version, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		game.ID, game.OrgID, game.Date, game.Time, game.Venue,
		game.Status, game.Notes, responses,
	).Scan(&game.Version, &game.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (s *GameStore) DeleteGame(ctx context.Context, orgID, gameID string) (bool, error) {
	query := `DELETE FROM games WHERE id = $1 AND org_id = $2`

	tag, err := s.db.Exec(ctx, query, gameID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to delete game: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
