package service

import (
	"context"

	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

type userStore interface {
	GetUser(ctx context.Context, orgID, userID string) (*models.User, error)
}

type UserService struct {
	store userStore
}

func NewUserService(store userStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) GetUser(ctx context.Context, orgID, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, orgID, userID)
}

// IsMember reports whether the user belongs to the organization. Every
// mutation checks this before touching an entity.
func (s *UserService) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	user, err := s.store.GetUser(ctx, orgID, userID)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}
