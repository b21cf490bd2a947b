package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type commentStore interface {
	CreateComment(ctx context.Context, c *models.FormationComment) (*models.FormationComment, error)
	GetComment(ctx context.Context, orgID, commentID string) (*models.FormationComment, error)
	ListByFormation(ctx context.Context, orgID, formationID string) ([]*models.FormationComment, error)
	UpdateComment(ctx context.Context, c *models.FormationComment) (*models.FormationComment, error)
	DeleteComment(ctx context.Context, orgID, commentID string) (bool, error)
}

type CommentService struct {
	comments   commentStore
	formations formationStore
	members    members
}

func NewCommentService(comments commentStore, formations formationStore, members members) *CommentService {
	return &CommentService{comments: comments, formations: formations, members: members}
}

func (s *CommentService) requireMember(ctx context.Context, orgID, actorID string) error {
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

func (s *CommentService) AddComment(ctx context.Context, actorID, orgID, formationID, text string) (*models.FormationComment, error) {
	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidationFailed)
	}

	f, err := s.formations.GetFormation(ctx, orgID, formationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if f == nil {
		return nil, ErrNotFound
	}

	c := &models.FormationComment{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		FormationID: formationID,
		AuthorID:    actorID,
		Text:        text,
		LikedBy:     []string{},
	}

	created, err := s.comments.CreateComment(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	return created, nil
}

func (s *CommentService) ListComments(ctx context.Context, orgID, formationID string) ([]*models.FormationComment, error) {
	comments, err := s.comments.ListByFormation(ctx, orgID, formationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	return comments, nil
}

// ownComment loads the comment and requires the actor to be its author.
func (s *CommentService) ownComment(ctx context.Context, actorID, orgID, commentID string) (*models.FormationComment, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	c, err := s.comments.GetComment(ctx, orgID, commentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if c.AuthorID != actorID {
		return nil, ErrUnauthorized
	}
	return c, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actorID, orgID, commentID, text string) (*models.FormationComment, error) {
	c, err := s.ownComment(ctx, actorID, orgID, commentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidationFailed)
	}

	c.Text = text
	return s.commit(ctx, c)
}

// DeleteComment returns the removed comment so the caller can publish the
// deletion keyed by comment and formation id.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, orgID, commentID string) (*models.FormationComment, error) {
	c, err := s.ownComment(ctx, actorID, orgID, commentID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.comments.DeleteComment(ctx, orgID, commentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if !deleted {
		return nil, ErrNotFound
	}
	return c, nil
}

// LikeComment is the same idempotent toggle as formation likes.
func (s *CommentService) LikeComment(ctx context.Context, actorID, orgID, commentID string) (*models.FormationComment, error) {
	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	c, err := s.comments.GetComment(ctx, orgID, commentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if c == nil {
		return nil, ErrNotFound
	}

	c.LikedBy = toggleLike(c.LikedBy, actorID)
	c.LikeCount = len(c.LikedBy)

	return s.commit(ctx, c)
}

func (s *CommentService) commit(ctx context.Context, c *models.FormationComment) (*models.FormationComment, error) {
	updated, err := s.comments.UpdateComment(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransient, err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}
