package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Techtaurant/be/internal/cookie"
	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/internal/oauth"
	"github.com/Techtaurant/be/pkg/apierror"
)

type loginRunner interface {
	Login(ctx context.Context, identity model.ExternalIdentity) (model.User, model.TokenPair, error)
}

type OAuthRedirects struct {
	Success  string
	Failure  string
	StateTTL time.Duration
}

// OAuthHandler drives the authorization code flow against the registered
// providers and ends it with the first token pair of a session.
type OAuthHandler struct {
	providers oauth.Registry
	login     loginRunner
	cookies   *cookie.Manager
	redirects OAuthRedirects
}

func NewOAuthHandler(providers oauth.Registry, login loginRunner, cookies *cookie.Manager, redirects OAuthRedirects) *OAuthHandler {
	if redirects.StateTTL <= 0 {
		redirects.StateTTL = 10 * time.Minute
	}
	return &OAuthHandler{providers: providers, login: login, cookies: cookies, redirects: redirects}
}

func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Lookup(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, err)
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		writeError(w, err)
		return
	}

	h.cookies.SetState(w, state, h.redirects.StateTTL)
	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider")
	provider, err := h.providers.Lookup(providerID)
	if err != nil {
		h.fail(w, r, toAPIError(err))
		return
	}

	expected := h.cookies.State(r)
	h.cookies.ClearState(w)

	query := r.URL.Query()
	if denied := query.Get("error"); denied != "" {
		slog.Info("oauth authorization denied", "provider", providerID, "reason", denied)
		h.fail(w, r, apierror.OAuthAuthenticationFailed.Err())
		return
	}

	state := query.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		slog.Warn("oauth state mismatch", "provider", providerID)
		h.fail(w, r, apierror.OAuthAuthenticationFailed.Err())
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, r, apierror.OAuthAuthenticationFailed.Err())
		return
	}

	identity, err := provider.Exchange(r.Context(), code)
	if err != nil {
		slog.Warn("oauth exchange failed", "provider", providerID, "error", err)
		h.fail(w, r, toAPIError(err))
		return
	}

	_, pair, err := h.login.Login(r.Context(), identity)
	if err != nil {
		h.fail(w, r, toAPIError(err))
		return
	}

	h.cookies.SetTokens(w, pair)
	http.Redirect(w, r, h.redirects.Success, http.StatusFound)
}

// fail sends the browser to the failure page with the numeric code and
// message of what went wrong.
func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, apiErr *apierror.APIError) {
	target, err := url.Parse(h.redirects.Failure)
	if err != nil || h.redirects.Failure == "" {
		writeError(w, apiErr)
		return
	}

	q := target.Query()
	q.Set("error", strconv.Itoa(apiErr.Status))
	q.Set("message", apiErr.Message)
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}
