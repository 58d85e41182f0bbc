package handler

import (
	"context"
	"net/http"

	"github.com/Techtaurant/be/internal/cookie"
	"github.com/Techtaurant/be/internal/middleware"
	"github.com/Techtaurant/be/internal/model"
)

type refresher interface {
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
}

type logoutRunner interface {
	Logout(ctx context.Context, accessToken string, refreshToken string)
}

type AuthHandler struct {
	refresh refresher
	logout  logoutRunner
	cookies *cookie.Manager
}

func NewAuthHandler(refresh refresher, logout logoutRunner, cookies *cookie.Manager) *AuthHandler {
	return &AuthHandler{refresh: refresh, logout: logout, cookies: cookies}
}

// Refresh redeems the refresh token from the cookie, or from a bearer header
// for clients without cookies, and answers with the new pair's expiry. A
// header client also gets the new pair back in response headers.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := h.cookies.RefreshToken(r)
	fromHeader := false
	if presented == "" {
		presented, fromHeader = middleware.BearerToken(r)
	}

	pair, err := h.refresh.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetTokens(w, pair)
	if fromHeader {
		w.Header().Set(middleware.AccessTokenHeader, pair.AccessToken)
		w.Header().Set(middleware.RefreshTokenHeader, pair.RefreshToken)
	}

	writeSuccess(w, http.StatusOK, pair.Expiry())
}

// Logout always succeeds and always clears both cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	access := h.cookies.AccessToken(r)
	if bearer, ok := middleware.BearerToken(r); ok {
		access = bearer
	}

	h.logout.Logout(r.Context(), access, h.cookies.RefreshToken(r))
	h.cookies.Clear(w)

	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true})
}
