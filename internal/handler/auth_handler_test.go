package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Techtaurant/be/internal/middleware"
	"github.com/Techtaurant/be/pkg/apierror"
)

func TestAuthHandler_RefreshFromCookie(t *testing.T) {
	refresher := &fakeRefresher{pair: testPair()}
	h := NewAuthHandler(refresher, &fakeLogout{}, newCookies())

	req := httptest.NewRequest(http.MethodPost, "/open-api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "refresh-1"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-1", refresher.got)
	assert.True(t, decodeBody(t, rec).Success)

	access := responseCookie(rec, "accessToken")
	require.NotNil(t, access)
	assert.Equal(t, "access-2", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.InDelta(t, 3600, access.MaxAge, 2)

	refresh := responseCookie(rec, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-2", refresh.Value)

	assert.Empty(t, rec.Header().Get(middleware.AccessTokenHeader))
}

func TestAuthHandler_RefreshFromHeader(t *testing.T) {
	refresher := &fakeRefresher{pair: testPair()}
	h := NewAuthHandler(refresher, &fakeLogout{}, newCookies())

	req := httptest.NewRequest(http.MethodPost, "/open-api/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer refresh-1")
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-1", refresher.got)
	assert.Equal(t, "access-2", rec.Header().Get(middleware.AccessTokenHeader))
	assert.Equal(t, "refresh-2", rec.Header().Get(middleware.RefreshTokenHeader))
}

func TestAuthHandler_RefreshFailure(t *testing.T) {
	refresher := &fakeRefresher{err: apierror.InvalidRefreshToken.Err()}
	h := NewAuthHandler(refresher, &fakeLogout{}, newCookies())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/open-api/auth/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", body.Error.Code)
	assert.Equal(t, 3001, body.Error.Status)
	assert.Nil(t, responseCookie(rec, "accessToken"))
}

func TestAuthHandler_LogoutAlwaysClears(t *testing.T) {
	logout := &fakeLogout{}
	h := NewAuthHandler(&fakeRefresher{}, logout, newCookies())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "a"})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "r"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", logout.access)
	assert.Equal(t, "r", logout.refresh)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := responseCookie(rec, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	// No credentials at all is still a successful logout.
	rec = httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, logout.calls)
}

func TestAuthHandler_LogoutPrefersBearer(t *testing.T) {
	logout := &fakeLogout{}
	h := NewAuthHandler(&fakeRefresher{}, logout, newCookies())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer header-access")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-access"})
	h.Logout(httptest.NewRecorder(), req)

	assert.Equal(t, "header-access", logout.access)
}
