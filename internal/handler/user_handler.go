package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Techtaurant/be/internal/middleware"
	"github.com/Techtaurant/be/internal/model"
	"github.com/Techtaurant/be/pkg/apierror"
)

type userProfiles interface {
	Me(ctx context.Context, id uuid.UUID) (model.UserProfile, error)
	ChangeRole(ctx context.Context, id uuid.UUID, role model.Role) (model.UserProfile, error)
}

type UserHandler struct {
	users userProfiles
}

func NewUserHandler(users userProfiles) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.AuthenticationRequired.Err())
		return
	}

	profile, err := h.users.Me(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.InvalidInput.WithDetails("id must be a UUID"))
		return
	}

	var payload model.UpdateRoleRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	role, err := model.ParseRole(payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.users.ChangeRole(r.Context(), userID, role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile)
}
