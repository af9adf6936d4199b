package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"knowledge-base/models"
	"knowledge-base/policy"
	"knowledge-base/repositories"
)

type UserService interface {
	// Me returns the caller's user record, or nil when unauthenticated.
	Me(ctx context.Context, actor *models.Identity) (*models.User, error)
	SetUserRole(ctx context.Context, actor *models.Identity, userID uuid.UUID, role models.UserRole) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, logger *slog.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) Me(ctx context.Context, actor *models.Identity) (*models.User, error) {
	if actor == nil {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserRole changes a role. Cached identities keep the previous role
// until their cache entry expires.
func (s *userService) SetUserRole(ctx context.Context, actor *models.Identity, userID uuid.UUID, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("invalid input", map[string][]string{
			"role": {"role must be one of [viewer editor admin]"},
		})
	}
	if err := policy.CanSetUserRole(actor); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, storeError(err, "user")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}

	s.logger.InfoContext(ctx, "user role changed", "user_id", userID, "role", role, "actor_id", actor.UserID)
	return user, nil
}
