package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

func createTestGame(t *testing.T, fx *fixture) *models.Game {
	t.Helper()
	game, err := fx.games.CreateGame(context.Background(), testCreator, testOrg, CreateGameInput{
		Date:  "2026-09-12",
		Time:  "18:30",
		Venue: "Riverside Pitch",
	})
	require.NoError(t, err)
	return game
}

func TestCreateGameStartsPending(t *testing.T) {
	fx := newFixture()
	game := createTestGame(t, fx)

	require.Equal(t, models.GameStatusPending, game.Status)
	require.Equal(t, testCreator, game.CreatorID)
	require.Empty(t, game.Responses)
	require.EqualValues(t, 1, game.Version)
}

func TestCreateGameValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateGameInput
	}{
		{name: "bad date", in: CreateGameInput{Date: "12/09/2026", Time: "18:30", Venue: "x"}},
		{name: "bad time", in: CreateGameInput{Date: "2026-09-12", Time: "6pm", Venue: "x"}},
		{name: "missing venue", in: CreateGameInput{Date: "2026-09-12", Time: "18:30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.games.CreateGame(ctx, testCreator, testOrg, tt.in)
			require.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestCreateGameRequiresIdentityAndMembership(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.games.CreateGame(ctx, "", testOrg, CreateGameInput{Date: "2026-09-12", Time: "18:30", Venue: "x"})
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = fx.games.CreateGame(ctx, "stranger", testOrg, CreateGameInput{Date: "2026-09-12", Time: "18:30", Venue: "x"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestStatusTransitionsCreatorOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.games.ConfirmGame(ctx, testMember, testOrg, game.ID, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	confirmed, err := fx.games.ConfirmGame(ctx, testCreator, testOrg, game.ID, "pitch booked")
	require.NoError(t, err)
	require.Equal(t, models.GameStatusConfirmed, confirmed.Status)
	require.Equal(t, "pitch booked", confirmed.Notes)

	// CONFIRMED cannot be confirmed again
	_, err = fx.games.ConfirmGame(ctx, testCreator, testOrg, game.ID, "")
	require.ErrorIs(t, err, ErrValidationFailed)

	completed, err := fx.games.CompleteGame(ctx, testCreator, testOrg, game.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.GameStatusCompleted, completed.Status)

	// COMPLETED is terminal
	_, err = fx.games.CancelGame(ctx, testCreator, testOrg, game.ID, "")
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	fx := newFixture()
	game := createTestGame(t, fx)

	_, err := fx.games.CompleteGame(context.Background(), testCreator, testOrg, game.ID, "")
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestRespondToGameUpsertsOnePerUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	g1, err := fx.games.RespondToGame(ctx, testMember, testOrg, game.ID, true)
	require.NoError(t, err)
	require.Len(t, g1.Responses, 1)
	require.True(t, g1.Responses[0].IsAvailable)

	g2, err := fx.games.RespondToGame(ctx, testMember, testOrg, game.ID, false)
	require.NoError(t, err)
	require.Len(t, g2.Responses, 1)
	require.False(t, g2.Responses[0].IsAvailable)
	require.Greater(t, g2.Version, g1.Version)
}

func TestUpdateGameUnknownID(t *testing.T) {
	fx := newFixture()

	_, err := fx.games.UpdateGame(context.Background(), testCreator, testOrg, "missing", UpdateGameInput{
		Date: "2026-09-12", Time: "18:30", Venue: "x",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGameCascadesFormation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	formation, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-3-3")
	require.NoError(t, err)

	cascaded, err := fx.games.DeleteGame(ctx, testCreator, testOrg, game.ID)
	require.NoError(t, err)
	require.NotNil(t, cascaded)
	require.Equal(t, formation.ID, cascaded.ID)

	_, err = fx.games.GetGame(ctx, testOrg, game.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = fx.formations.GetFormationByGame(ctx, testOrg, game.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

// racedGameStore simulates the game row vanishing between the ownership read
// and the delete, as happens when two deletes race.
type racedGameStore struct {
	*memGameStore
}

func (s *racedGameStore) DeleteGame(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func TestDeleteGameLostRaceLeavesFormationUntouched(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	game := createTestGame(t, fx)

	_, err := fx.formations.CreateFormation(ctx, testCreator, testOrg, game.ID, "4-3-3")
	require.NoError(t, err)

	users := NewUserService(newMemUserStore(
		&models.User{UserID: testCreator, OrgID: testOrg, Name: "Creator"},
	))
	raced := NewGameService(&racedGameStore{fx.gameStore}, fx.formStore, users)

	cascaded, err := raced.DeleteGame(ctx, testCreator, testOrg, game.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, cascaded)

	// the loser must not cascade: subscribers already heard about this
	// formation from whichever delete won
	formation, err := fx.formations.GetFormationByGame(ctx, testOrg, game.ID)
	require.NoError(t, err)
	require.NotNil(t, formation)
}

func TestGameInvisibleAcrossTenants(t *testing.T) {
	fx := newFixture()
	game := createTestGame(t, fx)

	_, err := fx.games.GetGame(context.Background(), "org-2", game.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
