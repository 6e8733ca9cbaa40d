package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	PublicKey string `json:"public_key"`
}

// RegisterResponse represents the registration response.
type RegisterResponse struct {
	UID string `json:"uid"`
}

// Register handles anonymous principal registration. Idempotent: the same
// public key always resolves to the same UID.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.PublicKey == "" {
		h.Error(w, http.StatusBadRequest, "public_key is required")
		return
	}

	principal, err := h.identity.Register(r.Context(), req.PublicKey)
	if err != nil {
		if models.IsValidation(err) {
			h.Error(w, http.StatusBadRequest, "invalid public_key: must be base64-encoded Ed25519 public key (32 bytes)")
			return
		}
		h.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.JSON(w, http.StatusOK, RegisterResponse{UID: principal.ID.String()})
}
