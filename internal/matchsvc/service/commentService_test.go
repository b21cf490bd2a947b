package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

func createTestFormation(t *testing.T, fx *fixture) *models.Formation {
	t.Helper()
	game := createTestGame(t, fx)
	f, err := fx.formations.CreateFormation(context.Background(), testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)
	return f
}

func TestAddComment(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	f := createTestFormation(t, fx)

	c, err := fx.comments.AddComment(ctx, testMember, testOrg, f.ID, "push the back line higher")
	require.NoError(t, err)
	require.Equal(t, testMember, c.AuthorID)
	require.Equal(t, f.ID, c.FormationID)
	require.Equal(t, 0, c.LikeCount)
	require.EqualValues(t, 1, c.Version)
}

func TestAddCommentValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	f := createTestFormation(t, fx)

	_, err := fx.comments.AddComment(ctx, testMember, testOrg, f.ID, "   ")
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = fx.comments.AddComment(ctx, testMember, testOrg, "missing", "text")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommentEditDeleteAuthorOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	f := createTestFormation(t, fx)

	c, err := fx.comments.AddComment(ctx, testMember, testOrg, f.ID, "first thought")
	require.NoError(t, err)

	_, err = fx.comments.UpdateComment(ctx, testCreator, testOrg, c.ID, "hijack")
	require.ErrorIs(t, err, ErrUnauthorized)

	updated, err := fx.comments.UpdateComment(ctx, testMember, testOrg, c.ID, "second thought")
	require.NoError(t, err)
	require.Equal(t, "second thought", updated.Text)
	require.Greater(t, updated.Version, c.Version)

	_, err = fx.comments.DeleteComment(ctx, testCreator, testOrg, c.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	deleted, err := fx.comments.DeleteComment(ctx, testMember, testOrg, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, deleted.ID)
	require.Equal(t, f.ID, deleted.FormationID)

	comments, err := fx.comments.ListComments(ctx, testOrg, f.ID)
	require.NoError(t, err)
	require.Empty(t, comments)
}

func TestLikeCommentToggle(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	f := createTestFormation(t, fx)

	c, err := fx.comments.AddComment(ctx, testMember, testOrg, f.ID, "nice shape")
	require.NoError(t, err)

	liked, err := fx.comments.LikeComment(ctx, testCreator, testOrg, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, liked.LikeCount)
	require.Contains(t, liked.LikedBy, testCreator)

	// a like-count update must not erase the text
	require.Equal(t, "nice shape", liked.Text)

	unliked, err := fx.comments.LikeComment(ctx, testCreator, testOrg, c.ID)
	require.NoError(t, err)
	require.Equal(t, 0, unliked.LikeCount)
	require.Len(t, unliked.LikedBy, unliked.LikeCount)
}
