package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

// GetUser resolves a user within one organization. Cross-tenant lookups
// come back empty by construction.
func (s *UserStore) GetUser(ctx context.Context, orgID, userID string) (*models.User, error) {
	query := `
		SELECT user_id, org_id, name, status, created_at, updated_at
		FROM users
		WHERE user_id = $1 AND org_id = $2
	`

	user := &models.User{}
	err := s.db.QueryRow(ctx, query, userID, orgID).Scan(
		&user.UserID,
		&user.OrgID,
		&user.Name,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
