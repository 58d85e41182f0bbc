package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/model"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

type claimsBody struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role,omitempty"`
	Type Type       `json:"typ"`
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    uuid.UUID
	Role      model.Role
	Type      Type
	ExpiresAt time.Time
}

// Issued is a freshly signed token with its expiry. TTL is the remaining
// lifetime at the moment of signing.
type Issued struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

type Codec struct {
	signer     *Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewCodec(signer *Signer, accessTTL time.Duration, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("token codec requires a signer")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive (access=%s, refresh=%s)", accessTTL, refreshTTL)
	}

	c := &Codec{
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Codec) CreateAccessToken(userID uuid.UUID, role model.Role) (Issued, error) {
	if !role.Valid() {
		return Issued{}, fmt.Errorf("%w: %q", model.ErrInvalidRole, role)
	}

	return c.create(userID, role, TypeAccess, c.accessTTL)
}

// CreateRefreshToken mints a refresh token. It carries no role; the current
// role is read from the user store when the token is redeemed.
func (c *Codec) CreateRefreshToken(userID uuid.UUID) (Issued, error) {
	return c.create(userID, "", TypeRefresh, c.refreshTTL)
}

func (c *Codec) create(userID uuid.UUID, role model.Role, typ Type, ttl time.Duration) (Issued, error) {
	now := c.now()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	body := claimsBody{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
		Role: role,
		Type: typ,
	}

	signed, err := c.signer.Sign(body)
	if err != nil {
		return Issued{}, err
	}

	return Issued{
		Value:     signed,
		ExpiresAt: expiresAt.Time,
		TTL:       expiresAt.Sub(now),
	}, nil
}

// VerifyAndExtract verifies a token of either type.
func (c *Codec) VerifyAndExtract(raw string) (Claims, error) {
	var body claimsBody
	if err := c.signer.Verify(raw, &body, c.parserOptions()...); err != nil {
		return Claims{}, err
	}

	userID, err := uuid.Parse(body.Subject)
	if err != nil {
		return Claims{}, &Error{Kind: KindMalformed, Err: fmt.Errorf("%w: %v", ErrInvalidSubject, err)}
	}

	claims := Claims{
		UserID: userID,
		Role:   body.Role,
		Type:   body.Type,
	}
	if body.ExpiresAt != nil {
		claims.ExpiresAt = body.ExpiresAt.Time
	}

	return claims, nil
}

func (c *Codec) VerifyAccess(raw string) (Claims, error) {
	claims, err := c.verifyType(raw, TypeAccess)
	if err != nil {
		return Claims{}, err
	}
	if !claims.Role.Valid() {
		return Claims{}, &Error{Kind: KindMalformed, Err: ErrMissingRole}
	}

	return claims, nil
}

func (c *Codec) VerifyRefresh(raw string) (Claims, error) {
	return c.verifyType(raw, TypeRefresh)
}

func (c *Codec) verifyType(raw string, want Type) (Claims, error) {
	claims, err := c.VerifyAndExtract(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.Type != want {
		return Claims{}, &Error{Kind: KindUnsupported, Err: fmt.Errorf("%w: want %s, got %q", ErrWrongType, want, claims.Type)}
	}

	return claims, nil
}

func (c *Codec) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	return opts
}
