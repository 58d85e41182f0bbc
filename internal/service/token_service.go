package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/internal/token"
	"github.com/Techtaurant/be/pkg/apierror"
)

const defaultStoreTimeout = 2 * time.Second

type refreshTokenCache interface {
	Put(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	Swap(ctx context.Context, userID uuid.UUID, expected string, next string, ttl time.Duration) error
}

// TokenService mints token pairs and owns every access to the refresh
// token cache, each bounded by the store timeout.
type TokenService struct {
	codec        *token.Codec
	cache        refreshTokenCache
	storeTimeout time.Duration
	metrics      *metrics.Metrics
}

func NewTokenService(codec *token.Codec, cache refreshTokenCache, storeTimeout time.Duration, m *metrics.Metrics) *TokenService {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &TokenService{
		codec:        codec,
		cache:        cache,
		storeTimeout: storeTimeout,
		metrics:      m,
	}
}

// Issue mints a pair for a freshly authenticated user and makes its refresh
// token the only valid one, superseding any earlier session.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID, role model.Role) (model.TokenPair, error) {
	pair, refreshTTL, err := s.mint(userID, role)
	if err != nil {
		slog.Error("mint token pair", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	cacheCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.cache.Put(cacheCtx, userID, pair.RefreshToken, refreshTTL); err != nil {
		slog.Error("seed refresh token cache", "user_id", userID, "error", err)
		return model.TokenPair{}, apierror.UnknownError.Err()
	}

	s.metrics.TokensIssued(metrics.FlowLogin)
	return pair, nil
}

func (s *TokenService) mint(userID uuid.UUID, role model.Role) (model.TokenPair, time.Duration, error) {
	access, err := s.codec.CreateAccessToken(userID, role)
	if err != nil {
		return model.TokenPair{}, 0, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.codec.CreateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, 0, fmt.Errorf("create refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:           access.Value,
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshToken:          refresh.Value,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
	}, refresh.TTL, nil
}

func (s *TokenService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
