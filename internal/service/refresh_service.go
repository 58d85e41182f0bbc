package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/cache"
	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/internal/token"
	"github.com/Techtaurant/be/pkg/apierror"
)

type roleFinder interface {
	FindRole(ctx context.Context, id uuid.UUID) (model.Role, error)
}

// RefreshService rotates a refresh token into a new pair. A refresh token
// can be redeemed at most once; presenting a superseded one is rejected.
type RefreshService struct {
	tokens         *TokenService
	users          roleFinder
	compareAndSwap bool
}

// NewRefreshService builds the rotation flow. With compareAndSwap the final
// cache write only succeeds if the presented token is still current, so two
// concurrent refreshes of the same token cannot both win.
func NewRefreshService(tokens *TokenService, users roleFinder, compareAndSwap bool) *RefreshService {
	return &RefreshService{tokens: tokens, users: users, compareAndSwap: compareAndSwap}
}

func (s *RefreshService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	pair, err := s.rotate(ctx, strings.TrimSpace(presented))
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			s.tokens.metrics.RefreshFailed(apiErr.Code)
		}
		return model.TokenPair{}, err
	}

	s.tokens.metrics.TokensIssued(metrics.FlowRefresh)
	return pair, nil
}

func (s *RefreshService) rotate(ctx context.Context, presented string) (model.TokenPair, error) {
	if presented == "" {
		return model.TokenPair{}, apierror.MissingRefreshToken.Err()
	}

	claims, err := s.tokens.codec.VerifyRefresh(presented)
	if err != nil {
		return model.TokenPair{}, refreshFailure(token.KindOf(err)).Err()
	}
	userID := claims.UserID

	cached, err := s.cachedToken(ctx, userID)
	if errors.Is(err, cache.ErrNotFound) {
		slog.Info("refresh token not in cache", "user_id", userID)
		return model.TokenPair{}, apierror.InvalidRefreshToken.Err()
	}
	if err != nil {
		slog.Error("read refresh token cache", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	if subtle.ConstantTimeCompare([]byte(cached), []byte(presented)) != 1 {
		slog.Warn("superseded refresh token presented", "user_id", userID)
		return model.TokenPair{}, apierror.InvalidRefreshToken.Err()
	}

	role, err := s.currentRole(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		slog.Warn("refresh for unknown user", "user_id", userID)
		return model.TokenPair{}, apierror.InvalidRefreshToken.Err()
	}
	if err != nil {
		slog.Error("read user role", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	pair, refreshTTL, err := s.tokens.mint(userID, role)
	if err != nil {
		slog.Error("mint token pair", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	err = s.store(ctx, userID, presented, pair.RefreshToken, refreshTTL)
	switch {
	case errors.Is(err, cache.ErrMismatch), errors.Is(err, cache.ErrNotFound):
		slog.Warn("refresh token rotated concurrently", "user_id", userID)
		return model.TokenPair{}, apierror.InvalidRefreshToken.Err()
	case err != nil:
		slog.Error("store rotated refresh token", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	return pair, nil
}

func (s *RefreshService) cachedToken(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	return s.tokens.cache.Get(ctx, userID)
}

func (s *RefreshService) currentRole(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	ctx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	return s.users.FindRole(ctx, userID)
}

func (s *RefreshService) store(ctx context.Context, userID uuid.UUID, presented string, next string, ttl time.Duration) error {
	ctx, cancel := s.tokens.storeContext(ctx)
	defer cancel()

	if s.compareAndSwap {
		return s.tokens.cache.Swap(ctx, userID, presented, next, ttl)
	}
	return s.tokens.cache.Put(ctx, userID, next, ttl)
}

// refreshFailure maps a verification failure of a presented refresh token.
// A bad signature is reported as an invalid refresh token rather than a
// generic invalid token.
func refreshFailure(kind token.Kind) apierror.Status {
	if kind == token.KindInvalid {
		return apierror.InvalidRefreshToken
	}
	return kind.Status()
}
