package handlers

import (
	"net/http"

	"github.com/crucial707/expense-tracker/internal/services"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth *services.AuthService
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.Auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	res, err := h.Auth.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
