// Package cookie writes and reads the credential cookies.
package cookie

import (
	"math"
	"net/http"
	"time"

	"github.com/Techtaurant/be/internal/model"
)

const stateCookieName = "oauth_state"

type Config struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	HTTPOnly    bool
	SameSite    http.SameSite
}

type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// SetTokens writes both credential cookies. Max-Age is the remaining
// lifetime of each token.
func (m *Manager) SetTokens(w http.ResponseWriter, pair model.TokenPair) {
	m.set(w, m.cfg.AccessName, pair.AccessToken, m.maxAge(pair.AccessTokenExpiresAt))
	m.set(w, m.cfg.RefreshName, pair.RefreshToken, m.maxAge(pair.RefreshTokenExpiresAt))
}

// Clear expires both credential cookies.
func (m *Manager) Clear(w http.ResponseWriter) {
	m.set(w, m.cfg.AccessName, "", -1)
	m.set(w, m.cfg.RefreshName, "", -1)
}

func (m *Manager) AccessToken(r *http.Request) string {
	return read(r, m.cfg.AccessName)
}

func (m *Manager) RefreshToken(r *http.Request) string {
	return read(r, m.cfg.RefreshName)
}

// SetState stores the OAuth state for the round trip to the provider.
func (m *Manager) SetState(w http.ResponseWriter, state string, ttl time.Duration) {
	m.set(w, stateCookieName, state, int(ttl.Seconds()))
}

func (m *Manager) State(r *http.Request) string {
	return read(r, stateCookieName)
}

func (m *Manager) ClearState(w http.ResponseWriter) {
	m.set(w, stateCookieName, "", -1)
}

func (m *Manager) set(w http.ResponseWriter, name string, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   m.cfg.Secure,
		HttpOnly: m.cfg.HTTPOnly,
		SameSite: m.cfg.SameSite,
	})
}

func (m *Manager) maxAge(expiresAt time.Time) int {
	seconds := int(math.Ceil(expiresAt.Sub(m.now()).Seconds()))
	if seconds < 1 {
		return -1
	}
	return seconds
}

func read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
