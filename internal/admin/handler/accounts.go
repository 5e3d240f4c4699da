package handler

import (
	"encoding/json"
	"net/http"

	"github.com/plaza-world/plaza/internal/admin/apierr"
	"github.com/plaza-world/plaza/internal/admin/response"
	"github.com/plaza-world/plaza/internal/services/auth"
)

// AccountsHandler registers protected player names
type AccountsHandler struct {
	auth *auth.Service
}

// NewAccountsHandler creates an accounts handler
func NewAccountsHandler(authService *auth.Service) *AccountsHandler {
	return &AccountsHandler{auth: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /accounts
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid JSON body"))
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, nil)
}
