package handlers

import (
	"net/http"

	"github.com/formflowhq/backend/internal/auth"
	"github.com/formflowhq/backend/internal/forms"
)

type AuthHandler struct {
	users *auth.UserService
	forms *forms.Store
}

func NewAuthHandler(users *auth.UserService, formStore *forms.Store) *AuthHandler {
	return &AuthHandler{users: users, forms: formStore}
}

// Verify runs behind token authentication. It mints the profile row on first
// sight and reports the caller's identity and form ids.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := auth.ClaimsFromContext(ctx)
	userID := auth.UserIDFromContext(ctx)

	user, err := h.users.GetOrCreate(ctx, userID, claims.Email, claims.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to verify user"})
		return
	}

	ids, err := h.forms.IDsByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load forms"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":      user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"forms":       ids,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}

	ids, err := h.forms.IDsByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load forms"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":      user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"forms":       ids,
		"createdAt":   user.CreatedAt,
	})
}
