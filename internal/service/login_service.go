package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/pkg/apierror"
)

type userStore interface {
	FindByProviderIdentity(ctx context.Context, provider model.Provider, identifier string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, email string, pictureURL string) error
}

// LoginService turns a verified external identity into a local user and
// the first token pair of a new session.
type LoginService struct {
	tokens *TokenService
	users  userStore
}

func NewLoginService(tokens *TokenService, users userStore) *LoginService {
	return &LoginService{tokens: tokens, users: users}
}

func (s *LoginService) Login(ctx context.Context, identity model.ExternalIdentity) (model.User, model.TokenPair, error) {
	if identity.ID == "" {
		return model.User{}, model.TokenPair{}, apierror.OAuthAuthenticationFailed.WithDetails("identity has no subject")
	}
	if identity.Email == "" {
		return model.User{}, model.TokenPair{}, apierror.OAuthEmailNotFound.Err()
	}

	user, err := s.resolve(ctx, identity)
	if err != nil {
		slog.Error("resolve login user", "provider", identity.Provider, "error", err)
		return model.User{}, model.TokenPair{}, apierror.UnknownError.Err()
	}

	pair, err := s.tokens.Issue(ctx, user.ID, user.Role)
	if err != nil {
		return model.User{}, model.TokenPair{}, err
	}

	slog.Info("user logged in", "user_id", user.ID, "provider", user.Provider)
	return user, pair, nil
}

// resolve finds the user bound to the identity or registers a new one.
// A concurrent first login for the same identity loses the insert and
// reads the winner's row.
func (s *LoginService) resolve(ctx context.Context, identity model.ExternalIdentity) (model.User, error) {
	user, err := s.find(ctx, identity)
	if err == nil {
		return s.syncProfile(ctx, user, identity), nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, err
	}

	createCtx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	user, err = s.users.Create(createCtx, model.User{
		Name:            identity.Name,
		Email:           identity.Email,
		Provider:        identity.Provider,
		Identifier:      identity.ID,
		Role:            model.RoleUser,
		ProfileImageURL: identity.PictureURL,
	})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return s.find(ctx, identity)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "provider", user.Provider)
	return user, nil
}

func (s *LoginService) find(ctx context.Context, identity model.ExternalIdentity) (model.User, error) {
	ctx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	return s.users.FindByProviderIdentity(ctx, identity.Provider, identity.ID)
}

// syncProfile is best effort; a stale display name never blocks a login.
func (s *LoginService) syncProfile(ctx context.Context, user model.User, identity model.ExternalIdentity) model.User {
	if user.Name == identity.Name && user.Email == identity.Email && user.ProfileImageURL == identity.PictureURL {
		return user
	}

	ctx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	if err := s.users.UpdateProfile(ctx, user.ID, identity.Name, identity.Email, identity.PictureURL); err != nil {
		slog.Warn("sync user profile", "user_id", user.ID, "error", err)
		return user
	}

	user.Name = identity.Name
	user.Email = identity.Email
	user.ProfileImageURL = identity.PictureURL
	return user
}
