package service

import (
	"context"
	"time"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

// In-memory store fakes mirroring the pgx stores' contracts: nil result for
// missing rows, version bump on every update.

type memUserStore struct {
	users map[string]*models.User // key: orgID + "/" + userID
}

func newMemUserStore(users ...*models.User) *memUserStore {
	s := &memUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.OrgID+"/"+u.UserID] = u
	}
	return s
}

func (s *memUserStore) GetUser(_ context.Context, orgID, userID string) (*models.User, error) {
	return s.users[orgID+"/"+userID], nil
}

type memGameStore struct {
	games map[string]*models.Game
}

func newMemGameStore() *memGameStore {
	return &memGameStore{games: make(map[string]*models.Game)}
}

func (s *memGameStore) CreateGame(_ context.Context, game *models.Game) (*models.Game, error) {
	game.Version = 1
	game.CreatedAt = time.Now()
	game.UpdatedAt = game.CreatedAt
	cp := *game
	s.games[game.ID] = &cp
	return game, nil
}

func (s *memGameStore) GetGame(_ context.Context, orgID, gameID string) (*models.Game, error) {
	g, ok := s.games[gameID]
	if !ok || g.OrgID != orgID {
		return nil, nil
	}
	cp := *g
	cp.Responses = append([]models.Response(nil), g.Responses...)
	return &cp, nil
}

func (s *memGameStore) ListGames(_ context.Context, orgID string) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range s.games {
		if g.OrgID == orgID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memGameStore) UpdateGame(_ context.Context, game *models.Game) (*models.Game, error) {
	current, ok := s.games[game.ID]
	if !ok || current.OrgID != game.OrgID {
		return nil, nil
	}
	game.Version = current.Version + 1
	game.UpdatedAt = time.Now()
	cp := *game
	s.games[game.ID] = &cp
	return game, nil
}

func (s *memGameStore) DeleteGame(_ context.Context, orgID, gameID string) (bool, error) {
	g, ok := s.games[gameID]
	if !ok || g.OrgID != orgID {
		return false, nil
	}
	delete(s.games, gameID)
	return true, nil
}

type memFormationStore struct {
	formations map[string]*models.Formation
}

func newMemFormationStore() *memFormationStore {
	return &memFormationStore{formations: make(map[string]*models.Formation)}
}

func (s *memFormationStore) CreateFormation(_ context.Context, f *models.Formation) (*models.Formation, error) {
	for _, existing := range s.formations {
		if existing.GameID == f.GameID && existing.OrgID == f.OrgID {
			return nil, nil // conflict on game_id
		}
	}
	f.Version = 1
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	s.formations[f.ID] = &cp
	return f, nil
}

func (s *memFormationStore) copyOf(f *models.Formation) *models.Formation {
	cp := *f
	cp.Positions = append([]models.Position(nil), f.Positions...)
	cp.LikedBy = append([]string(nil), f.LikedBy...)
	return &cp
}

func (s *memFormationStore) GetFormation(_ context.Context, orgID, formationID string) (*models.Formation, error) {
	f, ok := s.formations[formationID]
	if !ok || f.OrgID != orgID {
		return nil, nil
	}
	return s.copyOf(f), nil
}

func (s *memFormationStore) GetFormationByGame(_ context.Context, orgID, gameID string) (*models.Formation, error) {
	for _, f := range s.formations {
		if f.GameID == gameID && f.OrgID == orgID {
			return s.copyOf(f), nil
		}
	}
	return nil, nil
}

func (s *memFormationStore) UpdateFormation(_ context.Context, f *models.Formation) (*models.Formation, error) {
	current, ok := s.formations[f.ID]
	if !ok || current.OrgID != f.OrgID {
		return nil, nil
	}
	f.Version = current.Version + 1
	f.UpdatedAt = time.Now()
	s.formations[f.ID] = s.copyOf(f)
	return f, nil
}

func (s *memFormationStore) DeleteFormation(_ context.Context, orgID, formationID string) (bool, error) {
	f, ok := s.formations[formationID]
	if !ok || f.OrgID != orgID {
		return false, nil
	}
	delete(s.formations, formationID)
	return true, nil
}

func (s *memFormationStore) DeleteFormationByGame(_ context.Context, orgID, gameID string) (bool, error) {
	for id, f := range s.formations {
		if f.GameID == gameID && f.OrgID == orgID {
			delete(s.formations, id)
			return true, nil
		}
	}
	return false, nil
}

type memCommentStore struct {
	comments map[string]*models.FormationComment
}

func newMemCommentStore() *memCommentStore {
	return &memCommentStore{comments: make(map[string]*models.FormationComment)}
}

func (s *memCommentStore) copyOf(c *models.FormationComment) *models.FormationComment {
	cp := *c
	cp.LikedBy = append([]string(nil), c.LikedBy...)
	return &cp
}

func (s *memCommentStore) CreateComment(_ context.Context, c *models.FormationComment) (*models.FormationComment, error) {
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.comments[c.ID] = s.copyOf(c)
	return c, nil
}

func (s *memCommentStore) GetComment(_ context.Context, orgID, commentID string) (*models.FormationComment, error) {
	c, ok := s.comments[commentID]
	if !ok || c.OrgID != orgID {
		return nil, nil
	}
	return s.copyOf(c), nil
}

func (s *memCommentStore) ListByFormation(_ context.Context, orgID, formationID string) ([]*models.FormationComment, error) {
	var out []*models.FormationComment
	for _, c := range s.comments {
		if c.FormationID == formationID && c.OrgID == orgID {
			out = append(out, s.copyOf(c))
		}
	}
	return out, nil
}

func (s *memCommentStore) UpdateComment(_ context.Context, c *models.FormationComment) (*models.FormationComment, error) {
	current, ok := s.comments[c.ID]
	if !ok || current.OrgID != c.OrgID {
		return nil, nil
	}
	c.Version = current.Version + 1
	c.UpdatedAt = time.Now()
	s.comments[c.ID] = s.copyOf(c)
	return c, nil
}

func (s *memCommentStore) DeleteComment(_ context.Context, orgID, commentID string) (bool, error) {
	c, ok := s.comments[commentID]
	if !ok || c.OrgID != orgID {
		return false, nil
	}
	delete(s.comments, commentID)
	return true, nil
}

// fixture wires all services over fresh in-memory stores with two org
// members, "creator" and "member", in org "org-1".
type fixture struct {
	games      *GameService
	formations *FormationService
	comments   *CommentService
	gameStore  *memGameStore
	formStore  *memFormationStore
}

const (
	testOrg     = "org-1"
	testCreator = "creator"
	testMember  = "member"
)

func newFixture() *fixture {
	users := NewUserService(newMemUserStore(
		&models.User{UserID: testCreator, OrgID: testOrg, Name: "Creator"},
		&models.User{UserID: testMember, OrgID: testOrg, Name: "Member"},
	))
	gameStore := newMemGameStore()
	formStore := newMemFormationStore()
	commentStore := newMemCommentStore()

	return &fixture{
		games:      NewGameService(gameStore, formStore, users),
		formations: NewFormationService(formStore, gameStore, users),
		comments:   NewCommentService(commentStore, formStore, users),
		gameStore:  gameStore,
		formStore:  formStore,
	}
}
