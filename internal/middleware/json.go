package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/pkg/apierror"
)

func writeAPIError(w http.ResponseWriter, apiErr *apierror.APIError) {
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
