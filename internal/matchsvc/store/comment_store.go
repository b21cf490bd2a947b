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

type CommentStore struct {
	db *pgxpool.Pool
}

func NewCommentStore(db *pgxpool.Pool) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `id, org_id, formation_id, author_id, body, like_count, liked_by, version, created_at, updated_at`

func (s *CommentStore) CreateComment(ctx context.Context, c *models.FormationComment) (*models.FormationComment, error) {
	likedBy, err := json.Marshal(c.LikedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal liked_by: %w", err)
	}

	query := `
		INSERT INTO formation_comments (id, org_id, formation_id, author_id, body, like_count, liked_by, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING version, created_at, updated_at
	`

	err = s.db.QueryRow(ctx, query,
		c.ID, c.OrgID, c.FormationID, c.AuthorID, c.Text, c.LikeCount, likedBy,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return c, nil
}

func (s *CommentStore) scanComment(row pgx.Row) (*models.FormationComment, error) {
	c := &models.FormationComment{}
	var likedBy []byte
	err := row.Scan(
		&c.ID,
		&c.OrgID,
		&c.FormationID,
		&c.AuthorID,
		&c.Text,
		&c.LikeCount,
		&likedBy,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if err := json.Unmarshal(likedBy, &c.LikedBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal liked_by: %w", err)
	}

	return c, nil
}

func (s *CommentStore) GetComment(ctx context.Context, orgID, commentID string) (*models.FormationComment, error) {
	query := `SELECT ` + commentColumns + ` FROM formation_comments WHERE id = $1 AND org_id = $2`
	return s.scanComment(s.db.QueryRow(ctx, query, commentID, orgID))
}

func (s *CommentStore) ListByFormation(ctx context.Context, orgID, formationID string) ([]*models.FormationComment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM formation_comments
		WHERE formation_id = $1 AND org_id = $2
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, formationID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.FormationComment
	for rows.Next() {
		c, err := s.scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, nil
}

func (s *CommentStore) UpdateComment(ctx context.Context, c *models.FormationComment) (*models.FormationComment, error) {
	likedBy, err := json.Marshal(c.LikedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal liked_by: %w", err)
	}

	query := `
		UPDATE formation_comments
		SET body = $3, like_count = $4, liked_by = $5, version = version + 1, updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING version, updated_at
	`

	err = s.db.QueryRow(ctx, query, c.ID, c.OrgID, c.Text, c.LikeCount, likedBy).
		Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return c, nil
}

func (s *CommentStore) DeleteComment(ctx context.Context, orgID, commentID string) (bool, error) {
	query := `DELETE FROM formation_comments WHERE id = $1 AND org_id = $2`

	tag, err := s.db.Exec(ctx, query, commentID, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
