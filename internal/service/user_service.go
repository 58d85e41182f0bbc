package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/pkg/apierror"
)

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
}

type UserService struct {
	users        userDirectory
	storeTimeout time.Duration
}

func NewUserService(users userDirectory, storeTimeout time.Duration) *UserService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &UserService{users: users, storeTimeout: storeTimeout}
}

func (s *UserService) Me(ctx context.Context, id uuid.UUID) (model.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.UserProfile{}, apierror.UserNotFound.Err()
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("find user: %w", err)
	}

	return user.Profile(), nil
}

// ChangeRole updates the stored role. Existing access tokens keep the old
// role until they expire; the next refresh picks up the new one.
func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, role model.Role) (model.UserProfile, error) {
	if !role.Valid() {
		return model.UserProfile{}, fmt.Errorf("%w: %q", model.ErrInvalidRole, role)
	}

	updateCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := s.users.UpdateRole(updateCtx, id, role)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.UserProfile{}, apierror.UserNotFound.Err()
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("update role: %w", err)
	}

	slog.Info("user role changed", "user_id", id, "role", role)
	return s.Me(ctx, id)
}
