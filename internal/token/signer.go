package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret accepted for HS256.
const MinSecretLength = 32

// Signer signs and verifies HS256 tokens with a single process-wide secret.
// The secret is copied on construction and never changes afterwards.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}

	owned := make([]byte, len(secret))
	copy(owned, secret)

	return &Signer{secret: owned}, nil
}

func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and registered claims of raw and decodes it
// into claims. Failures are returned as *Error.
func (s *Signer) Verify(raw string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	if _, err := jwt.ParseWithClaims(raw, claims, s.keyFunc, opts...); err != nil {
		return classify(err)
	}

	return nil
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		alg, _ := t.Header["alg"].(string)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	return s.secret, nil
}
