package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Techtaurant/be/internal/model"
)

var (
	ErrProviderNotSupported = errors.New("oauth provider not supported")
	ErrAuthenticationFailed = errors.New("oauth authentication failed")
	ErrUserInfoLoad         = errors.New("oauth user info could not be loaded")
	ErrEmailNotFound        = errors.New("oauth provider returned no email")
)

// Provider is an upstream identity provider speaking the authorization
// code flow.
type Provider interface {
	Name() model.Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (model.ExternalIdentity, error)
}

// Registry maps the lowercase path id ("google") to a provider.
type Registry map[string]Provider

func (r Registry) Lookup(id string) (Provider, error) {
	p, ok := r[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotSupported, id)
	}
	return p, nil
}

// NewState returns a random URL-safe state value.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
