package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/token"
)

type LogoutService struct {
	tokens *TokenService
}

func NewLogoutService(tokens *TokenService) *LogoutService {
	return &LogoutService{tokens: tokens}
}

// Logout revokes the caller's live refresh token if either presented token
// still identifies a user. It never fails: missing, expired or malformed
// tokens mean there is nothing left to revoke.
func (s *LogoutService) Logout(ctx context.Context, accessToken string, refreshToken string) {
	userID, ok := s.subject(accessToken, refreshToken)
	if !ok {
		s.tokens.metrics.LoggedOut(metrics.LogoutAnonymous)
		return
	}

	// The revocation must land even if the client hangs up mid-request.
	ctx, cancel := s.tokens.storeContext(context.WithoutCancel(ctx))
	defer cancel()

	if err := s.tokens.cache.Delete(ctx, userID); err != nil {
		slog.Warn("revoke refresh token", "user_id", userID, "error", err)
		s.tokens.metrics.LoggedOut(metrics.LogoutError)
		return
	}

	slog.Info("user logged out", "user_id", userID)
	s.tokens.metrics.LoggedOut(metrics.LogoutRevoked)
}

func (s *LogoutService) subject(tokens ...string) (uuid.UUID, bool) {
	for _, raw := range tokens {
		if raw == "" {
			continue
		}
		claims, err := s.tokens.codec.VerifyAndExtract(raw)
		if err != nil {
			slog.Debug("logout token not usable", "kind", token.KindOf(err).String())
			continue
		}
		return claims.UserID, true
	}
	return uuid.Nil, false
}
