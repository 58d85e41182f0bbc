package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/Techtaurant/be/internal/model"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type GoogleOption func(*GoogleProvider)

// WithGoogleEndpoint overrides the authorization and token endpoints.
func WithGoogleEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(p *GoogleProvider) {
		p.config.Endpoint = endpoint
	}
}

func WithGoogleUserInfoURL(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.userInfoURL = url
	}
}

type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(clientID string, clientSecret string, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) Name() model.Provider {
	return model.ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (model.ExternalIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return model.ExternalIdentity{}, fmt.Errorf("%w: missing authorization code", ErrAuthenticationFailed)
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("%w: %w", ErrUserInfoLoad, err)
	}

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("%w: %w", ErrUserInfoLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.ExternalIdentity{}, fmt.Errorf("%w: userinfo status %d", ErrUserInfoLoad, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("%w: decode userinfo: %w", ErrUserInfoLoad, err)
	}

	if info.Sub == "" {
		return model.ExternalIdentity{}, fmt.Errorf("%w: userinfo has no subject", ErrUserInfoLoad)
	}
	if strings.TrimSpace(info.Email) == "" {
		return model.ExternalIdentity{}, ErrEmailNotFound
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	return model.ExternalIdentity{
		Provider:   model.ProviderGoogle,
		ID:         info.Sub,
		Email:      info.Email,
		Name:       name,
		PictureURL: info.Picture,
	}, nil
}
