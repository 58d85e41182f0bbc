package apierror

import "net/http"

// Status is a fixed client-facing outcome: a symbolic name, a numeric
// application code and the HTTP status it is reported with.
type Status struct {
	Name       string
	Code       int
	HTTPStatus int
	Message    string
}

var (
	OK = Status{Name: "OK", Code: 200, HTTPStatus: http.StatusOK, Message: "ok"}

	UserNotFound = Status{Name: "USER_NOT_FOUND", Code: 1001, HTTPStatus: http.StatusNotFound, Message: "user not found"}
	InvalidInput = Status{Name: "INVALID_INPUT", Code: 1002, HTTPStatus: http.StatusBadRequest, Message: "invalid input"}
	RateLimited  = Status{Name: "RATE_LIMITED", Code: 1003, HTTPStatus: http.StatusTooManyRequests, Message: "too many requests"}

	InvalidRefreshToken    = Status{Name: "INVALID_REFRESH_TOKEN", Code: 3001, HTTPStatus: http.StatusUnauthorized, Message: "invalid refresh token"}
	MissingRefreshToken    = Status{Name: "MISSING_REFRESH_TOKEN", Code: 3002, HTTPStatus: http.StatusUnauthorized, Message: "refresh token is missing"}
	TokenExpired           = Status{Name: "TOKEN_EXPIRED", Code: 3003, HTTPStatus: http.StatusUnauthorized, Message: "token has expired"}
	InvalidToken           = Status{Name: "INVALID_TOKEN", Code: 3004, HTTPStatus: http.StatusUnauthorized, Message: "invalid token"}
	MalformedToken         = Status{Name: "MALFORMED_TOKEN", Code: 3005, HTTPStatus: http.StatusUnauthorized, Message: "malformed token"}
	UnsupportedToken       = Status{Name: "UNSUPPORTED_TOKEN", Code: 3006, HTTPStatus: http.StatusUnauthorized, Message: "unsupported token"}
	AuthenticationRequired = Status{Name: "AUTHENTICATION_REQUIRED", Code: 3008, HTTPStatus: http.StatusUnauthorized, Message: "authentication required"}
	AccessDenied           = Status{Name: "ACCESS_DENIED", Code: 3009, HTTPStatus: http.StatusForbidden, Message: "access denied"}
	UnknownError           = Status{Name: "UNKNOWN_ERROR", Code: 3099, HTTPStatus: http.StatusInternalServerError, Message: "unknown token error"}

	OAuthProviderNotSupported = Status{Name: "OAUTH_PROVIDER_NOT_SUPPORTED", Code: 4001, HTTPStatus: http.StatusBadRequest, Message: "oauth provider is not supported"}
	OAuthEmailNotFound        = Status{Name: "OAUTH_EMAIL_NOT_FOUND", Code: 4002, HTTPStatus: http.StatusBadRequest, Message: "email not provided by oauth provider"}
	OAuthAuthenticationFailed = Status{Name: "OAUTH_AUTHENTICATION_FAILED", Code: 4003, HTTPStatus: http.StatusUnauthorized, Message: "oauth authentication failed"}
	OAuthUserInfoLoadFailed   = Status{Name: "OAUTH_USER_INFO_LOAD_FAILED", Code: 4004, HTTPStatus: http.StatusInternalServerError, Message: "failed to load oauth user info"}
)

// Err builds an APIError for the status.
func (s Status) Err() *APIError {
	return &APIError{Code: s.Name, Status: s.Code, Message: s.Message, HTTPStatus: s.HTTPStatus}
}

func (s Status) WithDetails(details string) *APIError {
	e := s.Err()
	e.Details = details
	return e
}
