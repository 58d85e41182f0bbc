package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Techtaurant/be/internal/cookie"
	"github.com/Techtaurant/be/internal/model"
)

func newCookies() *cookie.Manager {
	return cookie.NewManager(cookie.Config{
		AccessName:  "accessToken",
		RefreshName: "refreshToken",
		Secure:      true,
		HTTPOnly:    true,
		SameSite:    http.SameSiteLaxMode,
	})
}

func testPair() model.TokenPair {
	now := time.Now()
	return model.TokenPair{
		AccessToken:           "access-2",
		AccessTokenExpiresAt:  now.Add(time.Hour),
		RefreshToken:          "refresh-2",
		RefreshTokenExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type fakeRefresher struct {
	got  string
	pair model.TokenPair
	err  error
}

func (f *fakeRefresher) Refresh(_ context.Context, presented string) (model.TokenPair, error) {
	f.got = presented
	return f.pair, f.err
}

type fakeLogout struct {
	calls   int
	access  string
	refresh string
}

func (f *fakeLogout) Logout(_ context.Context, accessToken string, refreshToken string) {
	f.calls++
	f.access = accessToken
	f.refresh = refreshToken
}
