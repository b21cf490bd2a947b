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

type FormationStore struct {
	db *pgxpool.Pool
}

func NewFormationStore(db *pgxpool.Pool) *FormationStore {
	return &FormationStore{db: db}
}

// CreateFormation inserts the formation unless the game already has one.
// The unique index on game_id enforces the one-formation-per-game invariant;
// a conflicting insert returns (nil, nil) so the service can report the
// duplicate without racing a separate existence check.
func (s *FormationStore) CreateFormation(ctx context.Context, f *models.Formation) (*models.Formation, error) {
	positions, err := json.Marshal(f.Positions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal positions: %w", err)
	}
	likedBy, err := json.Marshal(f.LikedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal liked_by: %w", err)
	}

	query := `
		INSERT INTO formations (id, org_id, game_id, formation_type, positions, like_count, liked_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING version, created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		f.ID, f.OrgID, f.GameID, f.FormationType, positions, f.LikeCount, likedBy,
	).Scan(&f.Version, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // the game already has a formation
		}
		return nil, fmt.Errorf("failed to create formation: %w", err)
	}

	return f, nil
}

func (s *FormationStore) scanFormation(row pgx.Row) (*models.Formation, error) {
	f := &models.Formation{}
	var positions, likedBy []byte
	err := row.Scan(
		&f.ID,
		&f.OrgID,
		&f.GameID,
		&f.FormationType,
		&positions,
		&f.LikeCount,
		&likedBy,
		&f.Version,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get formation: %w", err)
	}

	if err := json.Unmarshal(positions, &f.Positions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal positions: %w", err)
	}
	if err := json.Unmarshal(likedBy, &f.LikedBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal liked_by: %w", err)
	}

	return f, nil
}

const formationColumns = `id, org_id, game_id, formation_type, positions, like_count, liked_by, version, created_at, updated_at`

func (s *FormationStore) GetFormation(ctx context.Context, orgID, formationID string) (*models.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE id = $1 AND org_id = $2`
	return s.scanFormation(s.db.QueryRow(ctx, query, formationID, orgID))
}

func (s *FormationStore) GetFormationByGame(ctx context.Context, orgID, gameID string) (*models.Formation, error) {
	query := `SELECT ` + formationColumns + ` FROM formations WHERE game_id = $1 AND org_id = $2`
	return s.scanFormation(s.db.QueryRow(ctx, query, gameID, orgID))
}

// UpdateFormation commits the full position map and like aggregate, bumping
// version. Two sessions of the same creator racing here resolve last write
// wins.
func (s *FormationStore) UpdateFormation(ctx context.Context, f *models.Formation) (*models.Formation, error) {
	positions, err := json.Marshal(f.Positions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal positions: %w", err)
	}
	likedBy, err := json.Marshal(f.LikedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal liked_by: %w", err)
	}

	query := `
		UPDATE formations
		SET positions = $3, like_count = $4, liked_by = $5, version = version + 1, updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING version, updated_at
	`

	err = s.db.QueryRow(ctx, query, f.ID, f.OrgID, positions, f.LikeCount, likedBy).
		Scan(&f.Version, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update formation: %w", err)
	}

	return f, nil
}

func (s *FormationStore) DeleteFormation(ctx context.Context, orgID, formationID string) (bool, error) {
	query := `DELETE FROM formations WHERE id = $1 AND org_id = $2`

	tag, err := s.db.Exec(ctx, query, formationID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to delete formation: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteFormationByGame removes a game's formation, if any. Used by the game
// delete cascade.
func (s *FormationStore) DeleteFormationByGame(ctx context.Context, orgID, gameID string) (bool, error) {
	query := `DELETE FROM formations WHERE game_id = $1 AND org_id = $2`

	tag, err := s.db.Exec(ctx, query, gameID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to delete formation by game: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
