package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/internal/oauth"
	"github.com/Techtaurant/be/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    apiErr.Code,
			Status:  apiErr.Status,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

// toAPIError maps any error to the client-facing status it is reported as.
func toAPIError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.UserNotFound.Err()
	case errors.Is(err, model.ErrInvalidRole), errors.Is(err, model.ErrInvalidInput):
		return apierror.InvalidInput.WithDetails(err.Error())
	case errors.Is(err, oauth.ErrProviderNotSupported):
		return apierror.OAuthProviderNotSupported.Err()
	case errors.Is(err, oauth.ErrEmailNotFound):
		return apierror.OAuthEmailNotFound.Err()
	case errors.Is(err, oauth.ErrUserInfoLoad):
		return apierror.OAuthUserInfoLoadFailed.Err()
	case errors.Is(err, oauth.ErrAuthenticationFailed):
		return apierror.OAuthAuthenticationFailed.Err()
	default:
		slog.Error("unhandled error in writeError", "error", err)
		return apierror.UnknownError.Err()
	}
}
