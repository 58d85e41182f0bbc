package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Techtaurant/be/pkg/apierror"
)

// Kind classifies why a token was rejected.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid
	KindMalformed
	KindUnsupported
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindMalformed:
		return "malformed"
	case KindUnsupported:
		return "unsupported"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Status is the client-facing status for a rejection of this kind.
func (k Kind) Status() apierror.Status {
	switch k {
	case KindInvalid:
		return apierror.InvalidToken
	case KindMalformed:
		return apierror.MalformedToken
	case KindUnsupported:
		return apierror.UnsupportedToken
	case KindExpired:
		return apierror.TokenExpired
	default:
		return apierror.UnknownError
	}
}

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrWrongType            = errors.New("unexpected token type")
	ErrInvalidSubject       = errors.New("token subject is not a user id")
	ErrMissingRole          = errors.New("access token carries no role")
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s token: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a verification error. Errors that did not come
// from this package are KindUnknown.
func KindOf(err error) Kind {
	var tokenErr *Error
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind
	}

	return KindUnknown
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &Error{Kind: KindUnsupported, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &Error{Kind: KindMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Error{Kind: KindExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return &Error{Kind: KindInvalid, Err: err}
	default:
		return &Error{Kind: KindUnknown, Err: err}
	}
}
