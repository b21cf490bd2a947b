package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

func strptr(s string) *string { return &s }

func slotOf(t *testing.T, f *models.Formation, slot int) models.Position {
	t.Helper()
	for _, p := range f.Positions {
		if p.Slot == slot {
			return p
		}
	}
	t.Fatalf("slot %d not found", slot)
	return models.Position{}
}

func TestCreateFormationBuildsEmptyEleven(t *testing.T) {
	fx := newFixture()
	game := createTestGame(t, fx)

	f, err := fx.formations.CreateFormation(context.Background(), testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	require.Len(t, f.Positions, 11)
	for i, p := range f.Positions {
		require.Equal(t, i+1, p.Slot)
		require.Nil(t, p.PlayerID)
	}
	require.EqualValues(t, 1, f.Version)
}

func TestCreateFormationRules(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testMember, testOrg, game.ID, "4-4-2")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "9-9-9")
	require.ErrorIs(t, err, ErrValidationFailed)

	_, err = fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	// the one-formation-per-game invariant
	_, err = fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-3-3")
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateFormationLeavesOtherSlotsUntouched(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	f, err := fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 1, PlayerID: strptr("p1")},
	})
	require.NoError(t, err)

	require.Equal(t, "p1", *slotOf(t, f, 1).PlayerID)
	for slot := 2; slot <= 11; slot++ {
		require.Nil(t, slotOf(t, f, slot).PlayerID, "slot %d", slot)
	}
}

func TestReassignClearsPreviousSlot(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-3-3")
	require.NoError(t, err)

	_, err = fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 4, PlayerID: strptr("p1")},
		{Slot: 7, PlayerID: strptr("p2")},
	})
	require.NoError(t, err)

	// p1 moves onto p2's slot: p1 leaves slot 4, p2 becomes unassigned
	f, err := fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 7, PlayerID: strptr("p1")},
	})
	require.NoError(t, err)

	require.Nil(t, slotOf(t, f, 4).PlayerID)
	require.Equal(t, "p1", *slotOf(t, f, 7).PlayerID)

	occupied := map[string]int{}
	for _, p := range f.Positions {
		if p.PlayerID != nil {
			occupied[*p.PlayerID]++
		}
	}
	for player, n := range occupied {
		require.LessOrEqual(t, n, 1, "player %s occupies %d slots", player, n)
	}
}

func TestSingleSlotInvariantUnderRandomSequences(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "3-5-2")
	require.NoError(t, err)

	players := []string{"p1", "p2", "p3", "p4"}
	var f *models.Formation
	for i := 0; i < 40; i++ {
		slot := (i*7)%11 + 1
		player := players[i%len(players)]
		f, err = fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
			{Slot: slot, PlayerID: strptr(player)},
		})
		require.NoError(t, err)

		counts := map[string]int{}
		for _, p := range f.Positions {
			if p.PlayerID != nil {
				counts[*p.PlayerID]++
			}
		}
		for player, n := range counts {
			require.LessOrEqual(t, n, 1, "player %s occupies %d slots after step %d", player, n, i)
		}
	}
}

func TestUpdateFormationClearSlot(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)
	_, err = fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 3, PlayerID: strptr("p1")},
	})
	require.NoError(t, err)

	f, err := fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 3},
	})
	require.NoError(t, err)
	require.Nil(t, slotOf(t, f, 3).PlayerID)
}

func TestUpdateFormationSlotOutOfRange(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	_, err = fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 12, PlayerID: strptr("p1")},
	})
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestDeleteFormationLifecycle(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	created, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-3-3")
	require.NoError(t, err)
	_, err = fx.formations.UpdateFormation(ctx, testCreator, testOrg, game.ID, []models.Position{
		{Slot: 9, PlayerID: strptr("p9")},
	})
	require.NoError(t, err)

	deleted, err := fx.formations.DeleteFormation(ctx, testCreator, testOrg, game.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, deleted.ID)
	require.Equal(t, game.ID, deleted.GameID)

	_, err = fx.formations.GetFormationByGame(ctx, testOrg, game.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLikeFormationToggleIsIdempotentPair(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	f, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	liked, err := fx.formations.LikeFormation(ctx, testMember, testOrg, f.ID)
	require.NoError(t, err)
	require.Equal(t, 1, liked.LikeCount)
	require.Equal(t, []string{testMember}, liked.LikedBy)

	// toggling twice returns to the initial state
	unliked, err := fx.formations.LikeFormation(ctx, testMember, testOrg, f.ID)
	require.NoError(t, err)
	require.Equal(t, 0, unliked.LikeCount)
	require.NotContains(t, unliked.LikedBy, testMember)

	// count always equals the set size
	require.Len(t, unliked.LikedBy, unliked.LikeCount)
}

func TestLikeFormationRequiresMembership(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	f, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-4-2")
	require.NoError(t, err)

	_, err = fx.formations.LikeFormation(ctx, "stranger", testOrg, f.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = fx.formations.LikeFormation(ctx, "", testOrg, f.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)
}
